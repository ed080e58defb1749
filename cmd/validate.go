package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/core/validator"
	"github.com/kilianp07/planday/infra/logger"
	"github.com/kilianp07/planday/pkg/export"
)

var validateOpts struct {
	instance  string
	candidate string
	policy    string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score a candidate schedule against an instance",
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateOpts.instance, "instance", "", "instance file (.json or .yaml)")
	f.StringVar(&validateOpts.candidate, "candidate", "", "file holding the candidate text")
	f.StringVar(&validateOpts.policy, "policy", "strict", "scoring policy: strict or partial")
	_ = validateCmd.MarkFlagRequired("instance")
	_ = validateCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	policy, err := validator.ParsePolicy(validateOpts.policy)
	if err != nil {
		return err
	}
	inst, err := export.ReadInstance(validateOpts.instance)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(validateOpts.candidate)
	if err != nil {
		return err
	}
	verdict := validator.New(nil, logger.New("validate")).Validate(policy, string(raw), inst)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}
