package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/core/optimizer"
	"github.com/kilianp07/planday/pkg/export"
)

var solveOpts struct {
	instance string
	format   string
	verify   bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Print the optimal schedule of an instance file",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.instance, "instance", "", "instance file (.json or .yaml)")
	f.StringVar(&solveOpts.format, "format", "json", "output format: json or csv")
	f.BoolVar(&solveOpts.verify, "verify", false, "check the optimum against the LP relaxation")
	_ = solveCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	inst, err := export.ReadInstance(solveOpts.instance)
	if err != nil {
		return err
	}
	plan := optimizer.Solve(inst)
	if solveOpts.verify {
		rel, err := optimizer.Relax(optimizer.JobsFor(inst))
		if err != nil {
			return err
		}
		if math.Abs(rel.Total-float64(plan.Total)) > 1e-6 {
			return fmt.Errorf("optimum %d disagrees with relaxation %.3f", plan.Total, rel.Total)
		}
	}
	doc := export.NewPlanDoc(inst, plan)
	switch solveOpts.format {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), doc)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), doc)
	default:
		return fmt.Errorf("unknown format %q", solveOpts.format)
	}
}
