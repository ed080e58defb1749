package config

import (
	"fmt"

	"github.com/kilianp07/planday/core/factory"
)

// EvaluationConfig drives scoring runs over the held-out partition.
type EvaluationConfig struct {
	// Policy is "strict" or "partial".
	Policy string `json:"policy"`
	// Workers bounds the number of concurrent completions.
	Workers int `json:"workers"`
	// Limit caps the number of instances evaluated. Zero means all.
	Limit int `json:"limit"`
	// Completer selects the completion source: "replay", "static", "oracle"
	// or "mqtt".
	Completer factory.ModuleConfig `json:"completer"`
	// SamplePath receives a fraction of the positively scored completions.
	SamplePath string  `json:"sample_path"`
	SampleRate float64 `json:"sample_rate"`
	Seed       int64   `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *EvaluationConfig) SetDefaults() {
	if c.Policy == "" {
		c.Policy = "strict"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Completer.Type == "" {
		c.Completer.Type = "replay"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 0.10
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Validate checks mandatory fields.
func (c EvaluationConfig) Validate() error {
	if c.Policy != "strict" && c.Policy != "partial" {
		return fmt.Errorf("unknown policy %s", c.Policy)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be within [0,1]")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	return nil
}
