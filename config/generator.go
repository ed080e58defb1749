package config

import (
	"fmt"
	"slices"
)

// GeneratorConfig bounds the random problem instances.
type GeneratorConfig struct {
	MinEvents          int     `json:"min_events"`
	MaxEvents          int     `json:"max_events"`
	Durations          []int   `json:"durations"`
	MaxStartMinute     int     `json:"max_start_minute"`
	DayEndMinute       int     `json:"day_end_minute"`
	OverlapProbability float64 `json:"overlap_probability"`
	MinOverlaps        int     `json:"min_overlaps"`
	MaxOverlapRatio    float64 `json:"max_overlap_ratio"`
	MinPriorityRatio   float64 `json:"min_priority_ratio"`
	MaxPriorityRatio   float64 `json:"max_priority_ratio"`
	MaxAttempts        int     `json:"max_attempts"`
	Seed               int64   `json:"seed"`
	Workers            int     `json:"workers"`
}

// generatorDefaults holds the fields for which zero is a meaningful setting.
// Load decodes the file over these values so an explicit zero survives.
func generatorDefaults() GeneratorConfig {
	return GeneratorConfig{
		OverlapProbability: 0.2,
		MinOverlaps:        1,
		MaxOverlapRatio:    0.4,
		MinPriorityRatio:   0.2,
		MaxPriorityRatio:   0.4,
	}
}

// DefaultGeneratorConfig returns a fully populated generator section.
func DefaultGeneratorConfig() GeneratorConfig {
	c := generatorDefaults()
	c.SetDefaults()
	return c
}

// SetDefaults fills the fields whose zero value is unusable. Ratios, the
// overlap probability and MinOverlaps are left alone; see
// DefaultGeneratorConfig.
func (c *GeneratorConfig) SetDefaults() {
	if c.MinEvents <= 0 {
		c.MinEvents = 4
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = 8
	}
	if len(c.Durations) == 0 {
		c.Durations = []int{15, 30, 45, 60, 75, 90, 105, 120}
	}
	if c.MaxStartMinute <= 0 {
		c.MaxStartMinute = 21*60 + 59
	}
	if c.DayEndMinute <= 0 {
		c.DayEndMinute = 24*60 - 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10000
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Validate checks the configuration ranges.
func (c GeneratorConfig) Validate() error {
	if c.MinEvents < 2 {
		return fmt.Errorf("min_events must be >= 2")
	}
	if c.MinEvents > c.MaxEvents {
		return fmt.Errorf("min_events > max_events")
	}
	for _, d := range c.Durations {
		if d <= 0 {
			return fmt.Errorf("durations must be > 0")
		}
	}
	if c.DayEndMinute >= 24*60 {
		return fmt.Errorf("day_end_minute must be < 1440")
	}
	if c.MaxStartMinute+c.MaxDuration() > c.DayEndMinute {
		return fmt.Errorf("max_start_minute + longest duration exceeds day_end_minute")
	}
	if c.OverlapProbability < 0 || c.OverlapProbability > 1 {
		return fmt.Errorf("overlap_probability must be within [0,1]")
	}
	if c.MinOverlaps < 0 || c.MaxOverlapRatio < 0 {
		return fmt.Errorf("overlap bounds must be positive")
	}
	if c.MinPriorityRatio < 0 || c.MaxPriorityRatio > 1 || c.MinPriorityRatio > c.MaxPriorityRatio {
		return fmt.Errorf("priority ratios must satisfy 0 <= min <= max <= 1")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be > 0")
	}
	return nil
}

// MinDuration returns the shortest allowed duration.
func (c GeneratorConfig) MinDuration() int { return slices.Min(c.Durations) }

// MaxDuration returns the longest allowed duration.
func (c GeneratorConfig) MaxDuration() int { return slices.Max(c.Durations) }
