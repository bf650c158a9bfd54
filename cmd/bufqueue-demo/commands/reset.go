package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vellumgfx/bufferqueue/config"
	"github.com/vellumgfx/bufferqueue/internal/cliprompt"
)

var (
	resetAddr  string
	resetAll   bool
	resetForce bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clean the running demo's buffer cache",
	Long: `reset calls the debug API's destructive /debug/queue/clean route,
which drops every cached slot except the last-flushed one, kept as the
pre-cache buffer. Confirms interactively unless --force is given.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetAddr, "addr", "", "debug API base URL (default: http://localhost:<debug_api.port>)")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "also clear the pre-cache pin and notify the consumer's OnGoBackground")
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	confirmed, err := cliprompt.ConfirmWithForce(
		fmt.Sprintf("Clean the buffer cache (all=%t)?", resetAll), resetForce)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "aborted")
		return nil
	}

	addr := resetAddr
	if addr == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		addr = fmt.Sprintf("http://localhost:%d", cfg.DebugAPI.Port)
	}

	url := addr + "/debug/queue/clean"
	if resetAll {
		url += "?all=true"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("reset: call debug API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset: debug API returned %s", resp.Status)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "cache cleaned")
	return nil
}
