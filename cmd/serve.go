package cmd

import (
	"github.com/spf13/cobra"

	"github.com/citsci/scirec/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")

		c, err := newCache()
		if err != nil {
			return err
		}
		// Materialize the record set up front so the first recommendation
		// request doesn't pay for a sync.
		if _, err := c.Sync(cmd.Context(), true); err != nil {
			return err
		}
		engine := newEngine(c)

		jdb, err := openJournal()
		if err != nil {
			return err
		}
		var j server.Journal
		if jdb != nil {
			defer jdb.Close()
			j = jdb
		}

		return server.New(c, engine, j).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
