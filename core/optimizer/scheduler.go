// Package optimizer computes the maximum-weight set of non-overlapping
// intervals with the classic weighted interval scheduling recurrence.
package optimizer

import (
	"sort"
	"time"

	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/model"
)

// Weight is the numeric type of a job weight.
type Weight interface {
	~int | ~int64 | ~float64
}

// Job is an interval with the weight it contributes when selected.
type Job[W Weight] struct {
	model.Interval
	Weight W
}

// Plan is the result of an optimisation.
type Plan[W Weight] struct {
	// Selected holds the chosen jobs in chronological order.
	Selected []Job[W]
	// Total equals the final DP cell and is the exact optimum.
	Total W
}

// Intervals returns the selected intervals in chronological order.
func (p Plan[W]) Intervals() []model.Interval {
	out := make([]model.Interval, len(p.Selected))
	for i, j := range p.Selected {
		out[i] = j.Interval
	}
	return out
}

// Optimize returns a maximum-weight subset of jobs in which no two selected
// jobs overlap. A job ending exactly when another starts is compatible with
// it.
//
// Ties between including and skipping a job are resolved in favour of
// inclusion, identically in the forward pass and the backtrack.
func Optimize[W Weight](jobs []Job[W]) Plan[W] {
	n := len(jobs)
	if n == 0 {
		return Plan[W]{}
	}
	sorted := make([]Job[W], n)
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return interval.LessByEnd(sorted[i].Interval, sorted[j].Interval)
	})

	compat := compatibility(sorted)
	dp := make([]W, n+1)
	for i := 1; i <= n; i++ {
		with, without := choice(sorted, compat, dp, i)
		if include(with, without) {
			dp[i] = with
		} else {
			dp[i] = without
		}
	}

	var picked []Job[W]
	for i := n; i > 0; {
		with, without := choice(sorted, compat, dp, i)
		if include(with, without) {
			picked = append(picked, sorted[i-1])
			i = compat[i-1] + 1
		} else {
			i--
		}
	}
	for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
		picked[l], picked[r] = picked[r], picked[l]
	}
	return Plan[W]{Selected: picked, Total: dp[n]}
}

// include is the single tie-break rule shared by both passes.
func include[W Weight](with, without W) bool { return with >= without }

func choice[W Weight](sorted []Job[W], compat []int, dp []W, i int) (with, without W) {
	return sorted[i-1].Weight + dp[compat[i-1]+1], dp[i-1]
}

// compatibility returns, for each job sorted by end, the index of the latest
// earlier job ending no later than its start, or -1.
func compatibility[W Weight](sorted []Job[W]) []int {
	compat := make([]int, len(sorted))
	for i := range sorted {
		start := sorted[i].Start
		// first index in [0, i) whose end is after start
		k := sort.Search(i, func(j int) bool { return sorted[j].End > start })
		compat[i] = k - 1
	}
	return compat
}

// JobsFor weights each instance event by its multiplied duration.
func JobsFor(p *model.ProblemInstance) []Job[int] {
	ws := p.Weighted()
	jobs := make([]Job[int], len(ws))
	for i, w := range ws {
		jobs[i] = Job[int]{Interval: w.Interval, Weight: w.Value()}
	}
	return jobs
}

// OptimalScore returns the maximum achievable weighted duration for events
// given the priority labels.
func OptimalScore(events []model.Interval, priorities []string) int {
	p := &model.ProblemInstance{Events: events, Priorities: priorities}
	return Optimize(JobsFor(p)).Total
}

// Solve optimises a problem instance.
func Solve(p *model.ProblemInstance) Plan[int] {
	return Optimize(JobsFor(p))
}

// Reweighted optimises the instance after replacing weights with
// interval.PriorityScore relative to now, the instance being laid on day.
func Reweighted(p *model.ProblemInstance, day, now time.Time) Plan[float64] {
	ws := p.Weighted()
	jobs := make([]Job[float64], len(ws))
	for i, w := range ws {
		jobs[i] = Job[float64]{Interval: w.Interval, Weight: interval.PriorityScore(w, day, now)}
	}
	return Optimize(jobs)
}
