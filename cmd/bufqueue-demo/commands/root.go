// Package commands implements the bufqueue-demo CLI, grounded on the
// teacher's cmd/dittofs/commands root/subcommand layout.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd is the base command when bufqueue-demo is invoked without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "bufqueue-demo",
	Short: "bufqueue-demo drives a BufferQueue producer/consumer pair",
	Long: `bufqueue-demo wires a BufferQueue core, an in-memory allocator, OTel
tracing, Prometheus metrics, and a debug API (read-only apart from its
cache-clean route) together into a
runnable producer/consumer loop, for exercising and inspecting the queue's
state machine outside of a unit test.

Use "bufqueue-demo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none; built-in defaults plus BUFQUEUE_* environment variables)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
