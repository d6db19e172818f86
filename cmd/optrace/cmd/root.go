package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "optrace",
	Short: "rewrite operator expressions into instrumented runtime calls",
	Long: `optrace rewrites index accesses, arithmetic, compound assignments and
comparisons in Go source files into calls to an instrumentation runtime,
preserving evaluation order and operand side effects.`,
	SilenceUsage: true,
}

var (
	cfgFile string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"path of a TOML options file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the CLI. Color output is disabled when stdout is not a
// terminal.
func Execute() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the CLI logger: a development logger with --verbose,
// otherwise a silent one so the report stays the only stdout output.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}
