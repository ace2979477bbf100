package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tstack-labs/tstack/internal/apply"
	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/resolve"
	"github.com/tstack-labs/tstack/internal/stack"
)

var (
	addAddons         []string
	addProjectDir     string
	addPackageManager string
	addInstall        bool
	addYes            bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add addons to an existing project",
	Long: `Add addons to a project generated by this tool.

The project configuration is read from its record file, or inferred from its
manifests when there is none. Addons that are already installed are ignored;
the rest are checked for compatibility and conflicts before anything changes.

Examples:
  tstack add --addons biome,husky
  tstack add --addons pwa --project-dir ./my-app`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	f := addCmd.Flags()
	f.StringSliceVar(&addAddons, "addons", nil, "Addons to add, comma separated")
	f.StringVar(&addProjectDir, "project-dir", ".", "Project directory")
	f.StringVar(&addPackageManager, "package-manager", "", "Package manager used for --install")
	f.BoolVar(&addInstall, "install", false, "Install dependencies afterwards")
	f.BoolVarP(&addYes, "yes", "y", false, "Skip prompts")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir, err := filepath.Abs(addProjectDir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}

	detected, err := project.Detect(appFs, dir)
	if err != nil {
		return err
	}
	logger.Debug("detected project", zap.String("dir", dir), zap.String("source", string(detected.Source)))
	frontends := stack.NewFrontendSet(detected.Frontend...)
	installed := detected.Installed()

	requested, err := feature.Parse(feature.KindAddon, addAddons)
	if err != nil {
		return err
	}
	if len(requested) == 0 && !addYes && interactive() {
		options := compat.CompatibleFeaturesForAdd(feature.All(feature.KindAddon), frontends, installed)
		if requested, err = newPrompter().Addons(options, nil); err != nil {
			return err
		}
	}
	if len(requested) == 0 {
		fmt.Fprintln(out, "No addons selected.")
		return nil
	}

	have := orderedset.New(installed...)
	var pending, skipped []feature.ID
	for _, id := range requested {
		if have.Has(id) {
			skipped = append(skipped, id)
			continue
		}
		pending = append(pending, id)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(out, "Already installed: %s\n", joinIDs(skipped))
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "Nothing to add.")
		return nil
	}

	res, err := checkSelection(pending, frontends, installed)
	if err != nil {
		return err
	}
	resolve.PrintPlan(out, res)

	input := project.Partial{
		ProjectDir: dir,
		Addons:     addonsOf(res.Features),
	}
	if cmd.Flags().Changed("package-manager") {
		pm, err := stack.Parse("package manager", addPackageManager, stack.PackageManagers)
		if err != nil {
			return err
		}
		input.PackageManager = pm
	}
	if cmd.Flags().Changed("install") {
		input.Install = project.Bool(addInstall)
	}
	cfg, err := project.SynthesizeWithDefaults(input, detected, userDefaults())
	if err != nil {
		return err
	}

	o := apply.New(appFs, apply.WithLogger(logger))
	report, applyErr := o.Apply(cmd.Context(), cfg, res.Features, true)
	if report != nil {
		apply.PrintReport(out, report)
	}
	if applyErr != nil && !isPartial(applyErr) {
		return applyErr
	}

	if cfg.Install {
		runner := newRunner()
		runner.Stdout = out
		runner.Stderr = cmd.ErrOrStderr()
		warn, err := runner.Dependencies(cmd.Context(), dir, cfg.PackageManager)
		if err != nil {
			return err
		}
		printWarning(cmd.ErrOrStderr(), string(warn))
	}
	if report != nil && len(report.Addons) > 0 {
		fmt.Fprintf(out, "\nAddons: %s\n", strings.Join(report.Addons, ", "))
	}
	return applyErr
}
