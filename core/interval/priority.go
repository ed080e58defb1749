package interval

import (
	"math"
	"time"

	"github.com/kilianp07/planday/core/model"
)

const (
	minUrgency       = 0.1
	urgencyDecayHour = 24.0
	minDurationHours = 0.5
)

// PriorityScore reweights an interval for re-ranking: multiplier × urgency ×
// efficiency. Urgency decays over days until the interval starts on day;
// efficiency favours short intervals. It plays no part in the optimality
// guarantee.
func PriorityScore(w model.WeightedInterval, day, now time.Time) float64 {
	hoursUntil := w.Start.At(day).Sub(now).Hours()
	urgency := minUrgency
	// intervals started a day or more ago keep the floor
	if denom := 1 + hoursUntil/urgencyDecayHour; denom > 0 {
		urgency = math.Max(minUrgency, 1/denom)
	}
	durationHours := float64(w.Duration()) / 60
	efficiency := 1 / math.Max(minDurationHours, durationHours)
	return float64(w.Multiplier) * urgency * efficiency
}
