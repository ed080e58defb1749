package config

import (
	"fmt"

	"github.com/kilianp07/planday/core/factory"
)

// CorpusConfig defines how generated instances are split and persisted.
type CorpusConfig struct {
	// Store selects the backend: "jsonl", "rotating" or "sqlite".
	Store factory.ModuleConfig `json:"store"`
	// Rows is the total number of instances to generate.
	Rows int `json:"rows"`
	// TestSize is the number of rows held out for evaluation.
	TestSize int `json:"test_size"`
	// Seed drives the train/test shuffle.
	Seed int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *CorpusConfig) SetDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "jsonl"
	}
	if c.Store.Conf == nil {
		c.Store.Conf = map[string]any{}
	}
	if _, ok := c.Store.Conf["path"]; !ok {
		c.Store.Conf["path"] = "data"
	}
	if c.Rows <= 0 {
		c.Rows = 600
	}
	if c.TestSize <= 0 {
		c.TestSize = 100
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Validate checks mandatory fields.
func (c CorpusConfig) Validate() error {
	switch c.Store.Type {
	case "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("unknown store %s", c.Store.Type)
	}
	if c.TestSize > c.Rows {
		return fmt.Errorf("test_size %d exceeds rows %d", c.TestSize, c.Rows)
	}
	return nil
}
