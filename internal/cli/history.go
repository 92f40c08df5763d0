package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashavijit/swiftbench/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs saved with --history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fail(ExitError, "--history database path is required")
			}
			store, err := history.Open(dbPath)
			if err != nil {
				return fail(ExitError, "%v", err)
			}
			defer store.Close()

			rows, err := store.ListRuns(limit)
			if err != nil {
				return fail(ExitError, "list runs: %v", err)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWhen\tMethod\tURL\tRequests\tFailed\tReq/s\tp50 (ms)\tp99 (ms)")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Method, r.URL,
					r.Requests, r.Failed, r.RPS, r.P50Ms, r.P99Ms)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "history", "", "SQLite database written by benchmark runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
