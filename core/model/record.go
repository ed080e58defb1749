package model

import "fmt"

// InstanceRecord is the line-delimited wire form of a ProblemInstance. Events
// are (label, "HH:MM", "HH:MM") triples.
type InstanceRecord struct {
	Category       string      `json:"category,omitempty"`
	Events         [][3]string `json:"events"`
	PriorityEvents []string    `json:"priority_events"`
	OptimalScore   int         `json:"optimal_score"`
	Prompt         string      `json:"prompt"`
}

// NewRecord converts an instance to its wire form.
func NewRecord(p *ProblemInstance) InstanceRecord {
	evs := make([][3]string, len(p.Events))
	for i, ev := range p.Events {
		evs[i] = [3]string{ev.Label, ev.Start.String(), ev.End.String()}
	}
	prio := make([]string, len(p.Priorities))
	copy(prio, p.Priorities)
	return InstanceRecord{
		Category:       p.Category,
		Events:         evs,
		PriorityEvents: prio,
		OptimalScore:   p.OptimalScore,
		Prompt:         p.Prompt(),
	}
}

// Instance decodes the record back into a validated ProblemInstance.
func (r InstanceRecord) Instance() (*ProblemInstance, error) {
	p := &ProblemInstance{
		Category:     r.Category,
		Events:       make([]Interval, len(r.Events)),
		Priorities:   append([]string(nil), r.PriorityEvents...),
		OptimalScore: r.OptimalScore,
	}
	for i, ev := range r.Events {
		iv, err := Entry{Label: ev[0], Start: ev[1], End: ev[2]}.Interval()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		p.Events[i] = iv
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
