package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tstack-labs/tstack/internal/apply"
	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/resolve"
	"github.com/tstack-labs/tstack/internal/stack"
)

// checkSelection runs every pre-mutation check: frontend compatibility of
// the selection and of any injected companion, then conflicts.
func checkSelection(selected []feature.ID, frontends *stack.FrontendSet, installed []feature.ID) (*resolve.Resolution, error) {
	if err := compat.CheckCompatible(selected, frontends); err != nil {
		return nil, err
	}
	res, err := resolve.ValidateSelection(selected, installed)
	if err != nil {
		return nil, err
	}
	if err := compat.CheckCompatible(res.Injected, frontends); err != nil {
		return nil, err
	}
	return res, nil
}

func addonsOf(ids []feature.ID) []feature.ID {
	var out []feature.ID
	for _, id := range ids {
		if info, ok := feature.Lookup(id); ok && info.Kind == feature.KindAddon {
			out = append(out, id)
		}
	}
	return out
}

// userDefaults returns the user config as the lowest explicit layer of
// project synthesis.
func userDefaults() project.Partial {
	if userConfig == nil {
		return project.Partial{}
	}
	d := userConfig.Defaults()
	return project.Partial{
		PackageManager: d.PackageManager,
		Install:        d.Install,
		Git:            d.Git,
	}
}

func isPartial(err error) bool {
	var partial *apply.PartialFailure
	return errors.As(err, &partial)
}

func printWarning(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "%s %s\n", color.YellowString("Warning:"), msg)
}

func joinIDs(ids []feature.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
