package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/infra/kpi"
)

var historyOpts struct {
	db    string
	runs  int
	days  int
	scope string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show evaluation runs and daily verdict tallies from the KPI database",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyOpts.db, "db", "kpi.db", "KPI database written by the sqlite metrics sink")
	f.IntVar(&historyOpts.runs, "runs", 10, "number of recent runs to list")
	f.IntVar(&historyOpts.days, "days", 7, "days of daily tallies to list")
	f.StringVar(&historyOpts.scope, "policy", "", "restrict daily tallies to one policy")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := kpi.NewSQLiteStore(historyOpts.db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Runs(historyOpts.runs)
	if err != nil {
		return err
	}
	end := time.Now()
	daily, err := store.Validations(historyOpts.scope, end.AddDate(0, 0, -historyOpts.days), end)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tAT\tPOLICY\tTOTAL\tVALID\tMEAN\tSTDDEV")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.2f\t%.2f\n",
			r.ID, r.At.Format(time.RFC3339), r.Policy, r.Total, r.ValidCount, r.Mean, r.StdDev)
	}
	fmt.Fprintln(w, "\nDAY\tPOLICY\tREASON\tCOUNT\tMEAN")
	for _, d := range daily {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n", d.Day.Format(time.DateOnly), d.Policy, d.Reason, d.Count, d.MeanScore)
	}
	return w.Flush()
}
