package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <address>",
	Short: "Recommend the nearest active opportunities for a network address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		maxDistance, _ := cmd.Flags().GetFloat64("max-distance")

		c, err := newCache()
		if err != nil {
			return err
		}
		engine := newEngine(c)

		uids, err := engine.Recommend(cmd.Context(), args[0], count, maxDistance)
		if err != nil {
			return err
		}
		for _, uid := range uids {
			fmt.Println(uid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().IntP("count", "n", 10, "Number of recommendations")
	recommendCmd.Flags().Float64("max-distance", 0, "Maximum distance in kilometers (0 = unbounded)")
}
