package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvents is returned for instances without events.
	ErrNoEvents = errors.New("instance has no events")
	// ErrDuplicateLabel is returned when two events share a label.
	ErrDuplicateLabel = errors.New("duplicate event label")
	// ErrNoPriorities is returned when an instance has no priority label.
	ErrNoPriorities = errors.New("instance has no priority label")
	// ErrUnknownPriority is returned when a priority label matches no event.
	ErrUnknownPriority = errors.New("priority label not among events")
	// ErrUnsorted is returned when events are not ascending by start.
	ErrUnsorted = errors.New("events not sorted by start")
)

// ProblemInstance is one generated scheduling problem. It is never mutated
// after generation.
type ProblemInstance struct {
	Category     string     `json:"category,omitempty" yaml:"category,omitempty"`
	Events       []Interval `json:"events" yaml:"events"`
	Priorities   []string   `json:"priorities" yaml:"priorities"`
	OptimalScore int        `json:"optimal_score" yaml:"optimal_score"`
}

// IsPriority reports whether label belongs to the priority set.
func (p *ProblemInstance) IsPriority(label string) bool {
	for _, l := range p.Priorities {
		if l == label {
			return true
		}
	}
	return false
}

// Multiplier returns the weight multiplier derived from priority membership.
func (p *ProblemInstance) Multiplier(label string) int {
	if p.IsPriority(label) {
		return PriorityMultiplier
	}
	return OrdinaryMultiplier
}

// Weighted returns the events with their derived multipliers, in event order.
func (p *ProblemInstance) Weighted() []WeightedInterval {
	out := make([]WeightedInterval, len(p.Events))
	for i, ev := range p.Events {
		out[i] = WeightedInterval{Interval: ev, Multiplier: p.Multiplier(ev.Label)}
	}
	return out
}

// Event looks up an event by label.
func (p *ProblemInstance) Event(label string) (Interval, bool) {
	for _, ev := range p.Events {
		if ev.Label == label {
			return ev, true
		}
	}
	return Interval{}, false
}

// Contains reports whether the entry matches one of the events verbatim.
func (p *ProblemInstance) Contains(e Entry) bool {
	for _, ev := range p.Events {
		if ev.Label == e.Label && ev.Start.String() == e.Start && ev.End.String() == e.End {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the instance.
func (p *ProblemInstance) Validate() error {
	if len(p.Events) == 0 {
		return ErrNoEvents
	}
	seen := make(map[string]struct{}, len(p.Events))
	for i, ev := range p.Events {
		if err := ev.Validate(); err != nil {
			return err
		}
		if _, ok := seen[ev.Label]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateLabel, ev.Label)
		}
		seen[ev.Label] = struct{}{}
		if i > 0 && p.Events[i-1].Start > ev.Start {
			return fmt.Errorf("%w at %s", ErrUnsorted, ev.Label)
		}
	}
	if len(p.Priorities) == 0 {
		return ErrNoPriorities
	}
	prio := make(map[string]struct{}, len(p.Priorities))
	for _, l := range p.Priorities {
		if _, ok := seen[l]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPriority, l)
		}
		if _, ok := prio[l]; ok {
			return fmt.Errorf("%w: priority %s", ErrDuplicateLabel, l)
		}
		prio[l] = struct{}{}
	}
	return nil
}

// Prompt renders the human-readable problem statement consumed downstream.
// The layout is fixed: an Events block, a blank line, then a Priorities block.
func (p *ProblemInstance) Prompt() string {
	var b strings.Builder
	b.WriteString("Events:\n")
	for i, ev := range p.Events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(ev.String())
	}
	b.WriteString("\n\nPriorities:\n")
	for i, l := range p.Priorities {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}
