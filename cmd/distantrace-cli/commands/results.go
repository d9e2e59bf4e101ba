package commands

import (
	"os"

	"distantrace-backend/lib/configutil/configdb"
	"distantrace-backend/lib/resultstore"
	"distantrace-backend/lib/resultstore/db"
	"distantrace-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var resultsDb *string

func init() {
	resultsDb = resultsCmd.Flags().String("db", "results.db", "The database to read results from.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <event-id>",
	Short: "Prints the stored results of an event.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, err := configdb.Struct{File: *resultsDb}.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		store := resultstore.NewStore(out)
		results, err := store.Results(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to read results", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Participant", "Date", "Distance (km)", "Steps"})
		for _, r := range results {
			t.AppendRow(table.Row{
				r.ParticipantId,
				r.Date.Format("2006-01-02"),
				r.Distance,
				r.Steps,
			})
		}
		t.Render()
	},
}
