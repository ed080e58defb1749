package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLabel is returned for intervals without a label.
	ErrEmptyLabel = errors.New("empty label")
	// ErrInvalidInterval is returned when an interval does not start before it ends.
	ErrInvalidInterval = errors.New("interval start must be before end")
)

// Weight multipliers applied to an interval's duration.
const (
	OrdinaryMultiplier = 1
	PriorityMultiplier = 2
)

// Interval is a labelled time-of-day range.
type Interval struct {
	Label string `json:"label" yaml:"label"`
	Start Clock  `json:"start" yaml:"start"`
	End   Clock  `json:"end" yaml:"end"`
}

// Duration returns the length of the interval in minutes.
func (iv Interval) Duration() int { return int(iv.End - iv.Start) }

// Validate checks the interval invariants.
func (iv Interval) Validate() error {
	if iv.Label == "" {
		return ErrEmptyLabel
	}
	if iv.Start >= iv.End {
		return fmt.Errorf("%s (%s - %s): %w", iv.Label, iv.Start, iv.End, ErrInvalidInterval)
	}
	if !iv.Start.Valid() || !iv.End.Valid() {
		return fmt.Errorf("%s: %w", iv.Label, ErrClockFormat)
	}
	return nil
}

// String renders the interval the way prompts list it.
func (iv Interval) String() string {
	return fmt.Sprintf("%s (%s - %s)", iv.Label, iv.Start, iv.End)
}

// WeightedInterval is an interval carrying its priority multiplier.
type WeightedInterval struct {
	Interval
	Multiplier int
}

// Value is the weighted duration used as the optimisation objective.
func (w WeightedInterval) Value() int { return w.Multiplier * w.Duration() }

// Priority reports whether the interval carries the priority multiplier.
func (w WeightedInterval) Priority() bool { return w.Multiplier == PriorityMultiplier }
