// Package corpus persists generated problem instances as train and test
// partitions and reads them back for evaluation.
package corpus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/planday/core/model"
)

// Partition names a split of the corpus.
type Partition string

const (
	Train Partition = "train"
	Test  Partition = "test"
)

// Partitions lists every partition a store holds.
var Partitions = []Partition{Train, Test}

// Record is one stored instance with its corpus metadata.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Partition Partition `json:"partition"`
	CreatedAt time.Time `json:"created_at"`
	model.InstanceRecord
}

// Query filters records. Zero fields match everything.
type Query struct {
	Partition Partition
	Category  string
	// Limit caps the number of records returned when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if q.Partition != "" && r.Partition != q.Partition {
		return false
	}
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	return true
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Store persists Records and supports querying them back in insertion order.
// Reset drops every stored record so a corpus build replaces the previous one.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Reset(ctx context.Context) error
	Close() error
}

// AppendAll writes recs in order and stops at the first error.
func AppendAll(ctx context.Context, s Store, recs []Record) error {
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Append(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
