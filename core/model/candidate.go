package model

import "fmt"

// Entry is one raw (label, start, end) triple of a candidate schedule. Times
// are kept as received so membership can be checked verbatim.
type Entry struct {
	Label string `json:"name" yaml:"name"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// CandidateSchedule is an externally produced schedule, in the order received.
type CandidateSchedule []Entry

// EntryOf renders an interval as a candidate entry.
func EntryOf(iv Interval) Entry {
	return Entry{Label: iv.Label, Start: iv.Start.String(), End: iv.End.String()}
}

// ScheduleOf renders intervals as a candidate schedule.
func ScheduleOf(ivs []Interval) CandidateSchedule {
	out := make(CandidateSchedule, len(ivs))
	for i, iv := range ivs {
		out[i] = EntryOf(iv)
	}
	return out
}

// Interval parses the entry times.
func (e Entry) Interval() (Interval, error) {
	start, err := ParseClock(e.Start)
	if err != nil {
		return Interval{}, fmt.Errorf("%s start: %w", e.Label, err)
	}
	end, err := ParseClock(e.End)
	if err != nil {
		return Interval{}, fmt.Errorf("%s end: %w", e.Label, err)
	}
	return Interval{Label: e.Label, Start: start, End: end}, nil
}
