package corpus

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/planday/core/model"
)

// Split shuffles instances with a source seeded from seed and holds out
// testSize of them as the Test partition. Record ids are drawn from the same
// source so a corpus is reproducible from its seed. Train records come
// first, both partitions in shuffled order.
func Split(instances []*model.ProblemInstance, testSize int, seed int64, createdAt time.Time) ([]Record, error) {
	if testSize < 0 || testSize > len(instances) {
		return nil, fmt.Errorf("test size %d out of range for %d instances", testSize, len(instances))
	}
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(instances))
	trainSize := len(instances) - testSize

	out := make([]Record, len(instances))
	for i, idx := range order {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, err
		}
		part := Train
		if i >= trainSize {
			part = Test
		}
		out[i] = Record{
			ID:             id,
			Partition:      part,
			CreatedAt:      createdAt.UTC(),
			InstanceRecord: model.NewRecord(instances[idx]),
		}
	}
	return out, nil
}

// Count tallies records per partition.
func Count(recs []Record) map[Partition]int {
	out := make(map[Partition]int)
	for _, r := range recs {
		out[r.Partition]++
	}
	return out
}
