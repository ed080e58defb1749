package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var genOpts struct {
	rows     int
	testSize int
	seed     int64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a corpus of scheduling instances and store its train/test split",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVar(&genOpts.rows, "rows", 0, "number of instances (default from config)")
	f.IntVar(&genOpts.testSize, "test-size", 0, "instances held out for evaluation (default from config)")
	f.Int64Var(&genOpts.seed, "seed", 0, "split seed (default from config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	svc, cfg, err := startService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeService(svc)

	rows, testSize, seed := cfg.Corpus.Rows, cfg.Corpus.TestSize, cfg.Corpus.Seed
	if cmd.Flags().Changed("rows") {
		rows = genOpts.rows
	}
	if cmd.Flags().Changed("test-size") {
		testSize = genOpts.testSize
	}
	if cmd.Flags().Changed("seed") {
		seed = genOpts.seed
	}
	sum, err := svc.Generate(cmd.Context(), rows, testSize, seed)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "generated %d/%d instances (train %d, test %d) in %s\n",
		sum.Generated, sum.Requested, sum.Train, sum.Test, sum.Elapsed.Round(time.Millisecond))
	return err
}
