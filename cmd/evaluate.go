package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/core/evaluation"
	"github.com/kilianp07/planday/core/factory"
	"github.com/kilianp07/planday/core/validator"
)

var evalOpts struct {
	policy      string
	completions string
	completer   string
	limit       int
	samples     string
	asJSON      bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a completion source over the test partition",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalOpts.policy, "policy", "", "scoring policy: strict or partial (default from config)")
	f.StringVar(&evalOpts.completions, "completions", "", "replay completions from this JSONL file")
	f.StringVar(&evalOpts.completer, "completer", "", "completer type, e.g. oracle or mqtt (default from config)")
	f.IntVar(&evalOpts.limit, "limit", 0, "evaluate at most this many records")
	f.StringVar(&evalOpts.samples, "samples", "", "sample log path (default from config)")
	f.BoolVar(&evalOpts.asJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	svc, _, err := startService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeService(svc)

	opts, err := svc.DefaultEvaluateOptions()
	if err != nil {
		return err
	}
	if evalOpts.policy != "" {
		if opts.Policy, err = validator.ParsePolicy(evalOpts.policy); err != nil {
			return err
		}
	}
	switch {
	case evalOpts.completions != "":
		opts.Completer = factory.ModuleConfig{Type: "replay", Conf: map[string]any{"path": evalOpts.completions}}
	case evalOpts.completer != "":
		opts.Completer = factory.ModuleConfig{Type: evalOpts.completer}
	}
	if evalOpts.limit > 0 {
		opts.Limit = evalOpts.limit
	}
	if evalOpts.samples != "" {
		opts.SamplePath = evalOpts.samples
	}

	rep, err := svc.Evaluate(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if evalOpts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return printReport(cmd, rep)
}

func printReport(cmd *cobra.Command, rep evaluation.Report) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "policy\t%s\n", rep.Policy)
	fmt.Fprintf(w, "samples\t%d\n", rep.Total)
	fmt.Fprintf(w, "valid\t%d (%.2f%%)\n", rep.ValidCount, rep.ValidPercent)
	fmt.Fprintf(w, "mean score\t%.2f\n", rep.Mean)
	fmt.Fprintf(w, "std dev\t%.2f\n", rep.StdDev)
	if rep.Failures > 0 {
		fmt.Fprintf(w, "completion failures\t%d\n", rep.Failures)
	}
	for _, rc := range rep.ReasonCounts() {
		fmt.Fprintf(w, "  %s\t%d\n", rc.Reason, rc.Count)
	}
	return w.Flush()
}
