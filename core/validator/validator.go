// Package validator checks externally produced schedules against the instance
// they answer and scores them relative to the instance optimum.
//
// Two policies are available and callers pick one explicitly. Strict runs the
// structural checks in a fixed order and stops at the first failure.
// PartialCredit scores format, ordering and efficiency separately. Both share
// the parsing and the interval primitives; the structural reason is reported
// under either policy.
package validator

import (
	"time"

	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/logger"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/model"
)

const (
	// MinEntries is the smallest schedule that can be scored.
	MinEntries = 2

	FormatPoints     = 10.0
	OrderPoints      = 20.0
	EfficiencyPoints = 70.0

	maxScore = 100.0
)

// Breakdown details a PartialCredit score.
type Breakdown struct {
	Format     float64 `json:"format"`
	Order      float64 `json:"order"`
	Efficiency float64 `json:"efficiency"`
	// Dropped lists entries excluded from the efficiency sum because they
	// overlap another entry.
	Dropped model.CandidateSchedule `json:"dropped,omitempty"`
}

// Verdict is the result of validating one candidate.
type Verdict struct {
	Policy    Policy                  `json:"policy"`
	Valid     bool                    `json:"valid"`
	Reason    Reason                  `json:"reason"`
	Score     float64                 `json:"score"`
	Achieved  int                     `json:"achieved"`
	Optimal   int                     `json:"optimal"`
	Entries   model.CandidateSchedule `json:"entries"`
	Breakdown *Breakdown              `json:"breakdown,omitempty"`
}

// Check validates raw against inst under policy. It has no side effects.
func Check(policy Policy, raw string, inst *model.ProblemInstance) Verdict {
	formatOK := WellFormed(raw)
	entries := Parse(raw)
	reason, ivs := diagnose(formatOK, entries, inst)

	v := Verdict{
		Policy:  policy,
		Valid:   reason == Valid,
		Reason:  reason,
		Optimal: inst.OptimalScore,
		Entries: entries,
	}
	switch policy {
	case PartialCredit:
		b, achieved := partial(formatOK, entries, inst)
		v.Breakdown, v.Achieved = b, achieved
		v.Score = b.Format + b.Order + b.Efficiency
	default:
		if v.Valid {
			v.Achieved = weight(ivs, inst)
			v.Score = ratio(v.Achieved, inst.OptimalScore) * maxScore
		}
	}
	return v
}

// diagnose runs the structural checks in order and returns the first failure.
func diagnose(formatOK bool, entries model.CandidateSchedule, inst *model.ProblemInstance) (Reason, []model.Interval) {
	if !formatOK {
		return FormatInvalid, nil
	}
	if len(entries) < MinEntries {
		return TooFewEvents, nil
	}
	if !allMembers(entries, inst) {
		return EventNotInOriginalList, nil
	}
	ivs, err := intervals(entries)
	if err != nil {
		return TimeFormatError, nil
	}
	if !interval.StrictlyIncreasing(ivs) {
		return NotSorted, ivs
	}
	if interval.AnyOverlap(ivs) {
		return OverlappingEvents, ivs
	}
	return Valid, ivs
}

func partial(formatOK bool, entries model.CandidateSchedule, inst *model.ProblemInstance) (*Breakdown, int) {
	b := &Breakdown{}
	if formatOK {
		b.Format = FormatPoints
	}
	if len(entries) < MinEntries {
		return b, 0
	}
	ivs, err := intervals(entries)
	if err != nil {
		return b, 0
	}
	if interval.StrictlyIncreasing(ivs) {
		b.Order = OrderPoints
	}
	if !allMembers(entries, inst) || hasDuplicates(entries) {
		return b, 0
	}
	kept, dropped := dropOverlapping(ivs)
	if len(dropped) > 0 {
		b.Dropped = model.ScheduleOf(dropped)
	}
	achieved := weight(kept, inst)
	b.Efficiency = ratio(achieved, inst.OptimalScore) * EfficiencyPoints
	return b, achieved
}

func allMembers(entries model.CandidateSchedule, inst *model.ProblemInstance) bool {
	for _, e := range entries {
		if !inst.Contains(e) {
			return false
		}
	}
	return true
}

func hasDuplicates(entries model.CandidateSchedule) bool {
	seen := make(map[model.Entry]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			return true
		}
		seen[e] = struct{}{}
	}
	return false
}

func intervals(entries model.CandidateSchedule) ([]model.Interval, error) {
	out := make([]model.Interval, len(entries))
	for i, e := range entries {
		iv, err := e.Interval()
		if err != nil {
			return nil, err
		}
		out[i] = iv
	}
	return out, nil
}

// dropOverlapping removes every interval that overlaps another one.
func dropOverlapping(ivs []model.Interval) (kept, dropped []model.Interval) {
	bad := make([]bool, len(ivs))
	for i := range ivs {
		for j := i + 1; j < len(ivs); j++ {
			if interval.Overlaps(ivs[i], ivs[j]) {
				bad[i], bad[j] = true, true
			}
		}
	}
	for i, iv := range ivs {
		if bad[i] {
			dropped = append(dropped, iv)
		} else {
			kept = append(kept, iv)
		}
	}
	return kept, dropped
}

func weight(ivs []model.Interval, inst *model.ProblemInstance) int {
	sum := 0
	for _, iv := range ivs {
		sum += inst.Multiplier(iv.Label) * iv.Duration()
	}
	return sum
}

func ratio(achieved, optimal int) float64 {
	if optimal <= 0 {
		return 0
	}
	return float64(achieved) / float64(optimal)
}

// Validator wraps Check with logging and metrics. It is safe for concurrent
// use when its sink is.
type Validator struct {
	sink coremetrics.ValidationRecorder
	log  logger.Logger
}

// New returns a Validator. Nil arguments disable the respective output.
func New(sink coremetrics.ValidationRecorder, log logger.Logger) *Validator {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Validator{sink: sink, log: logger.OrNop(log)}
}

// Validate checks raw against inst under policy and records the verdict.
func (v *Validator) Validate(policy Policy, raw string, inst *model.ProblemInstance) Verdict {
	verdict := Check(policy, raw, inst)
	v.log.Debugw("candidate validated", map[string]any{
		"policy":   policy.String(),
		"reason":   verdict.Reason.String(),
		"entries":  len(verdict.Entries),
		"achieved": verdict.Achieved,
		"optimal":  verdict.Optimal,
		"score":    verdict.Score,
	})
	if err := v.sink.RecordValidation(coremetrics.ValidationEvent{
		Policy: policy.String(),
		Reason: verdict.Reason.String(),
		Valid:  verdict.Valid,
		Score:  verdict.Score,
		Time:   time.Now(),
	}); err != nil {
		v.log.Errorf("record validation: %v", err)
	}
	return verdict
}
