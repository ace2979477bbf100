package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tstack-labs/tstack/internal/apply"
	"github.com/tstack-labs/tstack/internal/branding"
	"github.com/tstack-labs/tstack/internal/config"
	"github.com/tstack-labs/tstack/internal/install"
	"github.com/tstack-labs/tstack/internal/logging"
	"github.com/tstack-labs/tstack/internal/prompt"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Collaborators shared by every command. Tests replace them.
var (
	appFs       afero.Fs = afero.NewOsFs()
	newRunner            = func() *install.Runner { return &install.Runner{} }
	newPrompter          = func() prompt.Prompter { return prompt.NewForm(os.Getenv("ACCESSIBLE") != "") }
	interactive          = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
)

var (
	logLevel   string
	logger     = zap.NewNop()
	userConfig *config.Store
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds full-stack TypeScript monorepos and adds features to
projects it generated. Features are checked against the frontend stack and
against each other before anything is written.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		userConfig = config.New(appFs, config.FilePath())
		if err := userConfig.Load(); err != nil {
			return err
		}

		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if configured := userConfig.Get(config.KeyLogLevel); configured != "" {
				level = configured
			}
		}
		l, err := logging.New(level, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
}

// Execute runs the root command with build info injected via ldflags. The
// error, if any, has already been printed.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		var partial *apply.PartialFailure
		if !errors.As(err, &partial) {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "%s %v\n", color.RedString("Error:"), err)
		}
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit status:
// 0 on success, 2 when some features failed to apply, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var partial *apply.PartialFailure
	if errors.As(err, &partial) {
		return 2
	}
	return 1
}
