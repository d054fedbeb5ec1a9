package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		jdb, err := openJournal()
		if err != nil {
			return err
		}
		if jdb == nil {
			return errors.New("journal.path is not configured")
		}
		defer jdb.Close()

		runs, err := jdb.RecentRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Printf("%s  %-11s  +%d rows  %d total  %s\n",
				run.StartedAt.Format(time.RFC3339), run.Mode, run.NewRows, run.TotalRows, run.Duration)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
}
