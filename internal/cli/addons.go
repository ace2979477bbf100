package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/stack"
)

var (
	addonsFrontend   []string
	addonsProjectDir string
	addonsJSON       bool
)

var addonsCmd = &cobra.Command{
	Use:   "addons",
	Short: "List addons compatible with a frontend stack",
	Long: `List the addons that can be used with a frontend stack.

With --frontend the stack is taken from the flag. Otherwise, inside a
project, its frontends are detected and installed addons (and addons that
conflict with them) are hidden.`,
	Args: cobra.NoArgs,
	RunE: runAddons,
}

func init() {
	addonsCmd.Flags().StringSliceVar(&addonsFrontend, "frontend", nil, "Frontend stack, comma separated")
	addonsCmd.Flags().StringVar(&addonsProjectDir, "project-dir", ".", "Project directory to inspect")
	addonsCmd.Flags().BoolVar(&addonsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(addonsCmd)
}

type addonEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Hint  string `json:"hint"`
}

func runAddons(cmd *cobra.Command, args []string) error {
	all := feature.All(feature.KindAddon)
	var ids []feature.ID

	if cmd.Flags().Changed("frontend") {
		frontends, err := stack.ParseFrontends(addonsFrontend)
		if err != nil {
			return err
		}
		ids = compat.CompatibleFeatures(all, frontends)
	} else {
		dir, err := filepath.Abs(addonsProjectDir)
		if err != nil {
			return fmt.Errorf("resolving project directory: %w", err)
		}
		if project.IsProject(appFs, dir) {
			detected, err := project.Detect(appFs, dir)
			if err != nil {
				return err
			}
			ids = compat.CompatibleFeaturesForAdd(all, stack.NewFrontendSet(detected.Frontend...), detected.Installed())
		} else {
			ids = compat.CompatibleFeatures(all, stack.NewFrontendSet())
		}
	}

	entries := make([]addonEntry, 0, len(ids))
	for _, id := range ids {
		info := feature.MustLookup(id)
		entries = append(entries, addonEntry{ID: string(id), Label: info.Label, Hint: info.Hint})
	}

	out := cmd.OutOrStdout()
	if addonsJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling addons: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No compatible addons.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Label, e.Hint)
	}
	return w.Flush()
}
