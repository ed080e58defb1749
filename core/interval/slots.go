package interval

import "github.com/kilianp07/planday/core/model"

// Slot is a free time range.
type Slot struct {
	Start model.Clock `json:"start"`
	End   model.Clock `json:"end"`
}

// Duration returns the slot length in minutes.
func (s Slot) Duration() int { return int(s.End - s.Start) }

// FindFreeSlots returns the gaps of at least duration minutes between the
// occupied intervals within [rangeStart, rangeEnd). After each occupied
// interval the cursor resumes minGap minutes after its end.
func FindFreeSlots(occupied []model.Interval, duration int, rangeStart, rangeEnd model.Clock, minGap int) []Slot {
	var slots []Slot
	if rangeEnd <= rangeStart {
		return slots
	}

	sorted := make([]model.Interval, 0, len(occupied))
	for _, iv := range occupied {
		if iv.Start < rangeEnd && iv.End > rangeStart {
			sorted = append(sorted, iv)
		}
	}
	SortByStart(sorted)

	if len(sorted) == 0 {
		if int(rangeEnd-rangeStart) >= duration {
			slots = append(slots, Slot{Start: rangeStart, End: rangeEnd})
		}
		return slots
	}

	cursor := rangeStart
	for _, iv := range sorted {
		gapStart := cursor
		gapEnd := min(iv.Start, rangeEnd)
		if gapEnd > gapStart && int(gapEnd-gapStart) >= duration {
			slots = append(slots, Slot{Start: gapStart, End: gapEnd})
		}
		cursor = max(cursor, iv.End+model.Clock(minGap))
	}
	if cursor < rangeEnd && int(rangeEnd-cursor) >= duration {
		slots = append(slots, Slot{Start: cursor, End: rangeEnd})
	}
	return slots
}
