package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/config"
	"github.com/vellumgfx/bufferqueue/internal/cliout"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the running demo's queue snapshot as a table",
	Long: `status queries a running bufqueue-demo run instance's debug API and
renders the returned bufferqueue.Snapshot as a table, the same
cliout.PrintTable rendering the debug API's own /debug/queue/table endpoint
uses.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "debug API base URL (default: http://localhost:<debug_api.port>)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	addr := statusAddr
	if addr == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		addr = fmt.Sprintf("http://localhost:%d", cfg.DebugAPI.Port)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/debug/queue")
	if err != nil {
		return fmt.Errorf("status: query debug API: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data bufferqueue.Snapshot `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("status: decode response: %w", err)
	}

	snap := envelope.Data
	if err := cliout.SimpleTable(os.Stdout, [][2]string{
		{"queue", snap.ID},
		{"size", fmt.Sprintf("%d/%d", snap.QueueSize, snap.MaxQueueSize)},
		{"alive", fmt.Sprintf("%t", snap.Alive)},
		{"free", fmt.Sprintf("%v", snap.FreeList)},
		{"dirty", fmt.Sprintf("%v", snap.DirtyList)},
		{"last_flushed_seq", fmt.Sprintf("%d", snap.LastFlushedSequence)},
		{"mem_bytes", fmt.Sprintf("%d", snap.TotalMemBytes)},
	}); err != nil {
		return err
	}

	table := cliout.NewTableData("SEQ", "STATE", "WIDTH", "HEIGHT")
	for _, s := range snap.Slots {
		table.AddRow(
			fmt.Sprintf("%d", s.Sequence),
			s.State.String(),
			fmt.Sprintf("%d", s.Config.Width),
			fmt.Sprintf("%d", s.Config.Height),
		)
	}
	return cliout.PrintTable(os.Stdout, table)
}
