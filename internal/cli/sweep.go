package cli

import (
	"fmt"
	"time"

	"quill/internal/ingest"

	"github.com/spf13/cobra"
)

func newSweepCmd(e *env) *cobra.Command {
	var (
		dir string
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove orphaned upload temp files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = e.cfg.TempDir()
			}
			if ttl <= 0 {
				ttl = e.cfg.TempSweepTTL
			}
			removed := ingest.NewSweeper(dir, ttl, e.logger).Sweep()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d temp files from %s\n", removed, dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "temp directory (defaults to <STORAGE_DIR>/.tmp)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "minimum age of files to remove (defaults to TEMP_SWEEP_TTL)")
	return cmd
}
