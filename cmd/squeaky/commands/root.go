// Package commands implements CLI command handlers for squeaky.
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/version"
)

// ErrMismatchedNames is returned by verify when defined and used class
// names disagree.
var ErrMismatchedNames = errors.New("squeaky class names are defined but unused or used but undefined")

// maxExitCode is the largest status a process can report.
const maxExitCode = 255

// ExitError carries a process exit code other than 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
	format     string
}

// NewRootCommand builds the squeaky command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "squeaky",
		Short: "Squeaky - namespace CSS classes across a codebase",
		Long: `Squeaky rewrites stylesheet class selectors into unique namespaced names
and propagates them into every script, template and view that references them.

Commands:
  clean        Namespace classes and rewrite their references
  specificity  Report competing declarations for namespaced classes
  heuristic    Find the files each namespaced selector can be removed from
  analytics    Tabulate namespacing progress per stylesheet
  flatten      Flatten nested rules onto their namespaced selectors
  verify       Cross-check defined and used namespaced class names
  duplicates   Find namespaced classes sharing a base name`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default .squeaky.yaml in . or ./config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.logJSON, "log-json", false, "emit JSON logs")
	flags.StringVar(&opts.format, "format", "text", "output format: text, json, yaml")

	rootCmd.AddCommand(
		newCleanCommand(opts),
		newSpecificityCommand(opts),
		newHeuristicCommand(opts),
		newAnalyticsCommand(opts),
		newFlattenCommand(opts),
		newVerifyCommand(opts),
		newDuplicatesCommand(opts),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "squeaky %s\n", version.String())
		},
	}
}
