package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/tstack-labs/tstack/internal/apply"
	"github.com/tstack-labs/tstack/internal/branding"
	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/project"
	"github.com/tstack-labs/tstack/internal/prompt"
	"github.com/tstack-labs/tstack/internal/resolve"
	"github.com/tstack-labs/tstack/internal/stack"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

var (
	createDir            string
	createFrontend       []string
	createBackend        string
	createDatabase       string
	createORM            string
	createRuntime        string
	createAuth           string
	createAddons         []string
	createExamples       []string
	createPackageManager string
	createInstall        bool
	createGit            bool
	createDBSetup        string
	createAPI            string
	createWebDeploy      string
	createYes            bool
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Long: `Create a new monorepo from the chosen stack and features.

Every addon is checked against the frontend stack and against the other
selected features before anything is written. Companions a feature needs,
such as Biome for Husky, are added automatically.

Examples:
  tstack create my-app --frontend tanstack-router --backend hono --addons turborepo,biome
  tstack create shop --frontend next,native-nativewind --backend hono --database postgres --orm drizzle --auth better-auth --examples payments`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&createDir, "dir", "", "Project directory (default: ./<name>)")
	f.StringSliceVar(&createFrontend, "frontend", nil, "Frontend apps, comma separated")
	f.StringVar(&createBackend, "backend", "", "Server backend")
	f.StringVar(&createDatabase, "database", "", "Database")
	f.StringVar(&createORM, "orm", "", "ORM")
	f.StringVar(&createRuntime, "runtime", "", "Server runtime")
	f.StringVar(&createAuth, "auth", "", "Authentication provider")
	f.StringSliceVar(&createAddons, "addons", nil, "Addons, comma separated")
	f.StringSliceVar(&createExamples, "examples", nil, "Examples, comma separated")
	f.StringVar(&createPackageManager, "package-manager", "", "Package manager: npm, pnpm or bun")
	f.BoolVar(&createInstall, "install", false, "Install dependencies after creating the project")
	f.BoolVar(&createGit, "git", false, "Initialize a git repository")
	f.StringVar(&createDBSetup, "db-setup", "", "Database hosting setup")
	f.StringVar(&createAPI, "api", "", "API layer: trpc, orpc or none")
	f.StringVar(&createWebDeploy, "web-deploy", "", "Web deployment target")
	f.BoolVarP(&createYes, "yes", "y", false, "Skip prompts and use flags and defaults")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid project name %q: use lowercase letters, digits, '.', '_' or '-'", name)
	}

	dir := createDir
	if dir == "" {
		dir = name
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}
	if err := project.CheckNewDir(appFs, dir); err != nil {
		return err
	}

	input, err := createInput(cmd, name, dir)
	if err != nil {
		return err
	}

	if !createYes && interactive() {
		if err := promptCreate(cmd, newPrompter(), &input); err != nil {
			return err
		}
	}

	cfg, err := project.SynthesizeWithDefaults(input, nil, userDefaults())
	if err != nil {
		return err
	}

	res, err := checkSelection(apply.Selected(cfg), cfg.Frontends(), nil)
	if err != nil {
		return err
	}
	cfg = cfg.WithAddons(addonsOf(res.Features))

	fmt.Fprintf(out, "Creating %s in %s\n", cfg.ProjectName, dir)
	if len(res.Features) > 0 {
		resolve.PrintPlan(out, res)
	}

	o := apply.New(appFs, apply.WithLogger(logger))
	if _, err := o.Scaffold(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("scaffolding project: %w", err)
	}
	report, applyErr := o.Apply(cmd.Context(), cfg, res.Features, false)
	if report != nil {
		apply.PrintReport(out, report)
	}
	if applyErr != nil && !isPartial(applyErr) {
		return applyErr
	}

	if err := postCreate(cmd, cfg); err != nil {
		return err
	}

	printNextSteps(out, cfg, displayDir(name))
	return applyErr
}

// createInput turns the create flags into a partial configuration. Only flags
// the user actually set are carried over.
func createInput(cmd *cobra.Command, name, dir string) (project.Partial, error) {
	flags := cmd.Flags()
	in := project.Partial{ProjectName: name, ProjectDir: dir}

	if flags.Changed("frontend") {
		fe, err := stack.ParseFrontends(createFrontend)
		if err != nil {
			return in, err
		}
		in.Frontend = fe.Values()
	}

	var err error
	if in.Backend, err = parseIfSet(flags.Changed("backend"), "backend", createBackend, stack.Backends); err != nil {
		return in, err
	}
	if in.Database, err = parseIfSet(flags.Changed("database"), "database", createDatabase, stack.Databases); err != nil {
		return in, err
	}
	if in.ORM, err = parseIfSet(flags.Changed("orm"), "orm", createORM, stack.ORMs); err != nil {
		return in, err
	}
	if in.Runtime, err = parseIfSet(flags.Changed("runtime"), "runtime", createRuntime, stack.Runtimes); err != nil {
		return in, err
	}
	if in.PackageManager, err = parseIfSet(flags.Changed("package-manager"), "package manager", createPackageManager, stack.PackageManagers); err != nil {
		return in, err
	}
	if in.DBSetup, err = parseIfSet(flags.Changed("db-setup"), "db setup", createDBSetup, stack.DBSetups); err != nil {
		return in, err
	}
	if in.API, err = parseIfSet(flags.Changed("api"), "api", createAPI, stack.APIs); err != nil {
		return in, err
	}
	if in.WebDeploy, err = parseIfSet(flags.Changed("web-deploy"), "web deploy", createWebDeploy, stack.WebDeploys); err != nil {
		return in, err
	}

	if in.Addons, err = feature.Parse(feature.KindAddon, createAddons); err != nil {
		return in, err
	}
	if in.Examples, err = feature.Parse(feature.KindExample, createExamples); err != nil {
		return in, err
	}
	if flags.Changed("auth") {
		in.Auth = feature.None
		auth, err := feature.Parse(feature.KindAuth, []string{createAuth})
		if err != nil {
			return in, err
		}
		if len(auth) > 0 {
			in.Auth = auth[0]
		}
	}

	if flags.Changed("install") {
		in.Install = project.Bool(createInstall)
	}
	if flags.Changed("git") {
		in.Git = project.Bool(createGit)
	}
	return in, nil
}

func parseIfSet[T ~string](set bool, field, value string, allowed []T) (T, error) {
	if !set {
		return "", nil
	}
	return stack.Parse(field, value, allowed)
}

// promptCreate asks for every feature group the flags left open. Options are
// limited to what the frontend stack supports.
func promptCreate(cmd *cobra.Command, p prompt.Prompter, in *project.Partial) error {
	flags := cmd.Flags()
	frontends := stack.NewFrontendSet(in.Frontend...)

	if !flags.Changed("addons") {
		addons, err := p.Addons(compat.CompatibleFeatures(feature.All(feature.KindAddon), frontends), nil)
		if err != nil {
			return err
		}
		in.Addons = addons
	}
	if !flags.Changed("auth") {
		auth, err := p.Auth(compat.CompatibleFeatures(feature.All(feature.KindAuth), frontends))
		if err != nil {
			return err
		}
		in.Auth = auth
	}
	if !flags.Changed("examples") {
		examples, err := p.Examples(compat.CompatibleFeatures(feature.All(feature.KindExample), frontends))
		if err != nil {
			return err
		}
		in.Examples = examples
	}
	return nil
}

// postCreate installs dependencies and initializes git when requested.
// Missing tools only produce warnings.
func postCreate(cmd *cobra.Command, cfg project.Config) error {
	runner := newRunner()
	runner.Stdout = cmd.OutOrStdout()
	runner.Stderr = cmd.ErrOrStderr()

	if cfg.Install {
		warn, err := runner.Dependencies(cmd.Context(), cfg.ProjectDir, cfg.PackageManager)
		if err != nil {
			return err
		}
		printWarning(cmd.ErrOrStderr(), string(warn))
	}
	if cfg.Git {
		warn, err := runner.Git(cmd.Context(), cfg.ProjectDir)
		if err != nil {
			return err
		}
		printWarning(cmd.ErrOrStderr(), string(warn))
	}
	return nil
}

func displayDir(name string) string {
	if createDir != "" {
		return createDir
	}
	return name
}

func printNextSteps(w io.Writer, cfg project.Config, dir string) {
	pm := string(cfg.PackageManager)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  cd %s\n", dir)
	step := 1
	if !cfg.Install {
		fmt.Fprintf(w, "  %d. %s install\n", step, pm)
		step++
	}
	fmt.Fprintf(w, "  %d. %s run dev\n", step, pm)
	fmt.Fprintf(w, "\nAdd features later with '%s add'.\n", branding.CLIName())
}
