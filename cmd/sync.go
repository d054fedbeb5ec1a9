package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/journal"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local opportunity cache with the remote catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		full, _ := cmd.Flags().GetBool("full")

		c, err := newCache()
		if err != nil {
			return err
		}

		start := time.Now()
		added, err := c.Sync(cmd.Context(), !full)
		if err != nil {
			return err
		}
		utils.Log.Infof("Sync finished: %d new rows, %d total (%s)", added, c.Len(), c.Path())

		jdb, err := openJournal()
		if err != nil {
			utils.Log.Warnf("Could not open sync journal: %v", err)
			return nil
		}
		if jdb != nil {
			defer jdb.Close()
			mode := "incremental"
			if full {
				mode = "full"
			}
			run := journal.Run{
				StartedAt: start,
				Mode:      mode,
				NewRows:   added,
				TotalRows: c.Len(),
				Duration:  time.Since(start),
			}
			if err := jdb.RecordRun(cmd.Context(), run); err != nil {
				utils.Log.Warnf("Could not record sync run: %v", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("full", false, "Rebuild the record set from scratch instead of merging missing rows")
}
