package optimizer

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/model"
)

func iv(label, start, end string) model.Interval {
	return model.Interval{Label: label, Start: model.MustClock(start), End: model.MustClock(end)}
}

func endToEnd() *model.ProblemInstance {
	return &model.ProblemInstance{
		Events: []model.Interval{
			iv("A", "09:00", "10:00"),
			iv("B", "09:30", "10:30"),
			iv("C", "11:00", "12:00"),
		},
		Priorities: []string{"C"},
	}
}

func TestOptimalScoreEndToEnd(t *testing.T) {
	p := endToEnd()
	assert.Equal(t, 180, OptimalScore(p.Events, p.Priorities))

	plan := Solve(p)
	require.Len(t, plan.Selected, 2)
	assert.Equal(t, 180, plan.Total)
	assert.Equal(t, "C", plan.Selected[1].Label)
}

func TestTieBreakPrefersInclusion(t *testing.T) {
	// A and B weigh the same; B ends later so it is considered last and,
	// with the inclusion-on-tie rule, wins.
	plan := Solve(endToEnd())
	assert.Equal(t, []string{"B", "C"}, labels(plan))

	for i := 0; i < 20; i++ {
		again := Solve(endToEnd())
		assert.Equal(t, plan.Total, again.Total)
		assert.Equal(t, labels(plan), labels(again))
	}
}

func TestTouchingIntervalsAreCompatible(t *testing.T) {
	jobs := []Job[int]{
		{Interval: iv("A", "09:00", "10:00"), Weight: 60},
		{Interval: iv("B", "10:00", "11:00"), Weight: 60},
		{Interval: iv("C", "11:00", "12:00"), Weight: 60},
	}
	plan := Optimize(jobs)
	assert.Equal(t, 180, plan.Total)
	assert.Len(t, plan.Selected, 3)
}

func TestOptimizeEmpty(t *testing.T) {
	plan := Optimize[int](nil)
	assert.Zero(t, plan.Total)
	assert.Empty(t, plan.Selected)
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	jobs := []Job[int]{
		{Interval: iv("late", "15:00", "16:00"), Weight: 1},
		{Interval: iv("early", "08:00", "09:00"), Weight: 1},
	}
	_ = Optimize(jobs)
	assert.Equal(t, "late", jobs[0].Label)
}

func TestCompatibility(t *testing.T) {
	sorted := []Job[int]{
		{Interval: iv("A", "09:00", "10:00")},
		{Interval: iv("B", "09:30", "10:30")},
		{Interval: iv("C", "10:00", "11:00")},
		{Interval: iv("D", "10:30", "12:00")},
	}
	assert.Equal(t, []int{-1, -1, 0, 1}, compatibility(sorted))
}

func TestOptimizeMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 300; trial++ {
		jobs := randomJobs(r, 1+r.Intn(8))
		plan := Optimize(jobs)

		if want := bruteForce(jobs); plan.Total != want {
			t.Fatalf("trial %d: dp %d brute force %d", trial, plan.Total, want)
		}
		sum := 0
		for _, j := range plan.Selected {
			sum += j.Weight
		}
		if sum != plan.Total {
			t.Fatalf("trial %d: selected weight %d != total %d", trial, sum, plan.Total)
		}
		if interval.AnyOverlap(plan.Intervals()) {
			t.Fatalf("trial %d: selection overlaps: %v", trial, plan.Intervals())
		}
		if !interval.StrictlyIncreasing(plan.Intervals()) {
			t.Fatalf("trial %d: selection not chronological", trial)
		}
	}
}

func TestRelaxationMatchesDP(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		jobs := randomJobs(r, 2+r.Intn(7))
		rel, err := Relax(jobs)
		require.NoError(t, err)
		dp := Optimize(jobs).Total
		if math.Abs(rel.Total-float64(dp)) > 1e-6 {
			t.Fatalf("trial %d: relaxation %.6f dp %d", trial, rel.Total, dp)
		}
		require.Len(t, rel.Fractions, len(jobs))
	}
}

func TestRelaxationEndToEnd(t *testing.T) {
	rel, err := Relax(JobsFor(endToEnd()))
	require.NoError(t, err)
	assert.InDelta(t, 180, rel.Total, 1e-6)
}

func TestReweighted(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(8 * time.Hour)
	plan := Reweighted(endToEnd(), day, now)
	require.NotEmpty(t, plan.Selected)
	assert.False(t, interval.AnyOverlap(plan.Intervals()))
	assert.Greater(t, plan.Total, 0.0)
}

func labels[W Weight](p Plan[W]) []string {
	out := make([]string, len(p.Selected))
	for i, j := range p.Selected {
		out[i] = j.Label
	}
	return out
}

func randomJobs(r *rand.Rand, n int) []Job[int] {
	jobs := make([]Job[int], n)
	for i := range jobs {
		start := model.Clock(r.Intn(12) * 30)
		dur := model.Clock(15 * (1 + r.Intn(8)))
		jobs[i] = Job[int]{
			Interval: model.Interval{Label: string(rune('A' + i)), Start: start, End: start + dur},
			Weight:   int(dur) * (1 + r.Intn(2)),
		}
	}
	return jobs
}

func bruteForce(jobs []Job[int]) int {
	best := 0
	for mask := 0; mask < 1<<len(jobs); mask++ {
		var chosen []model.Interval
		total := 0
		for i, j := range jobs {
			if mask&(1<<i) != 0 {
				chosen = append(chosen, j.Interval)
				total += j.Weight
			}
		}
		if !interval.AnyOverlap(chosen) && total > best {
			best = total
		}
	}
	return best
}
