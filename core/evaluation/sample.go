package evaluation

import (
	"encoding/json"
	"io"
	"math/rand"
	"sync"
)

// Sample is one line of the sample log.
type Sample struct {
	ID         string  `json:"id"`
	Category   string  `json:"category,omitempty"`
	Reason     string  `json:"reason"`
	Score      float64 `json:"score"`
	Completion string  `json:"completion"`
}

// Sampler writes a random fraction of the positively scored outcomes to a
// line-delimited log for inspection.
type Sampler struct {
	rate float64
	rng  *rand.Rand

	mu      sync.Mutex
	enc     *json.Encoder
	written int
}

// NewSampler keeps each positive outcome with probability rate. rng must
// not be shared with other goroutines.
func NewSampler(w io.Writer, rate float64, rng *rand.Rand) *Sampler {
	return &Sampler{rate: rate, rng: rng, enc: json.NewEncoder(w)}
}

// Offer considers one outcome and reports whether it was written.
func (s *Sampler) Offer(o Outcome) (bool, error) {
	if o.Verdict.Score <= 0 {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() >= s.rate {
		return false, nil
	}
	err := s.enc.Encode(Sample{
		ID:         o.ID,
		Category:   o.Category,
		Reason:     o.Verdict.Reason.String(),
		Score:      o.Verdict.Score,
		Completion: o.Completion,
	})
	if err != nil {
		return false, err
	}
	s.written++
	return true, nil
}

// Consume offers every outcome received on ch until it is closed. The first
// write error is returned after ch is drained.
func (s *Sampler) Consume(ch <-chan Outcome) error {
	var first error
	for o := range ch {
		if _, err := s.Offer(o); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Written returns the number of samples logged so far.
func (s *Sampler) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
