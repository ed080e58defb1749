// Package interval implements the interval math shared by the optimizer,
// the problem generator and the candidate validator.
//
// Two overlap policies coexist on purpose. Exclusive treats touching
// endpoints as compatible and drives optimisation and validation. Inclusive
// treats touching endpoints as overlapping and is only used when the generator
// counts overlapping pairs to accept or reject an instance.
package interval

import (
	"sort"

	"github.com/kilianp07/planday/core/model"
)

// Policy decides whether two intervals overlap.
type Policy func(a, b model.Interval) bool

// Exclusive is the exclusive-boundary overlap test.
var Exclusive Policy = Overlaps

// Inclusive is the inclusive-boundary overlap test.
var Inclusive Policy = OverlapsInclusive

// Overlaps reports a true overlap: a.Start < b.End and b.Start < a.End.
// Back-to-back intervals do not overlap.
func Overlaps(a, b model.Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// OverlapsInclusive reports an overlap when the closed ranges intersect, so
// back-to-back intervals do overlap.
func OverlapsInclusive(a, b model.Interval) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// CountPairs counts unordered pairs in set that overlap under policy.
func CountPairs(set []model.Interval, policy Policy) int {
	n := 0
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			if policy(set[i], set[j]) {
				n++
			}
		}
	}
	return n
}

// CountOverlappingPairs counts overlapping pairs under the inclusive policy.
func CountOverlappingPairs(set []model.Interval) int {
	return CountPairs(set, Inclusive)
}

// FindConflicts returns the members of existing that truly overlap candidate,
// in their original order.
func FindConflicts(candidate model.Interval, existing []model.Interval) []model.Interval {
	var out []model.Interval
	for _, iv := range existing {
		if Overlaps(iv, candidate) {
			out = append(out, iv)
		}
	}
	return out
}

// SortByStart stably sorts intervals by start, then end, then label.
func SortByStart(ivs []model.Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		a, b := ivs[i], ivs[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Label < b.Label
	})
}

// SortByEnd stably sorts intervals by end, then start, then label.
func SortByEnd(ivs []model.Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		return lessByEnd(ivs[i], ivs[j])
	})
}

// LessByEnd is the ordering used by SortByEnd, exported for callers sorting
// wrapper types.
func LessByEnd(a, b model.Interval) bool { return lessByEnd(a, b) }

func lessByEnd(a, b model.Interval) bool {
	if a.End != b.End {
		return a.End < b.End
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Label < b.Label
}

// StrictlyIncreasing reports whether starts strictly increase in slice order.
func StrictlyIncreasing(ivs []model.Interval) bool {
	for i := 1; i < len(ivs); i++ {
		if ivs[i-1].Start >= ivs[i].Start {
			return false
		}
	}
	return true
}

// AnyOverlap reports whether any two intervals truly overlap.
func AnyOverlap(ivs []model.Interval) bool {
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			if Overlaps(ivs[i], ivs[j]) {
				return true
			}
		}
	}
	return false
}
