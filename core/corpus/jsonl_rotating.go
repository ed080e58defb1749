package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingOptions bounds the size and lifetime of rotated partition files.
type RotatingOptions struct {
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// RotatingJSONLStore is a JSONLStore whose partition files rotate once they
// reach MaxSizeMB. Rotated files stay queryable.
type RotatingJSONLStore struct {
	dir  string
	opts RotatingOptions

	mu      sync.Mutex
	writers map[Partition]*lumberjack.Logger
}

// NewRotatingJSONLStore creates dir if needed.
func NewRotatingJSONLStore(dir string, opts RotatingOptions) (*RotatingJSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &RotatingJSONLStore{dir: dir, opts: opts, writers: make(map[Partition]*lumberjack.Logger)}, nil
}

func (s *RotatingJSONLStore) writer(p Partition) *lumberjack.Logger {
	w, ok := s.writers[p]
	if !ok {
		w = &lumberjack.Logger{
			Filename:   filepath.Join(s.dir, string(p)+".jsonl"),
			MaxSize:    s.opts.MaxSizeMB,
			MaxBackups: s.opts.MaxBackups,
			MaxAge:     s.opts.MaxAgeDays,
		}
		s.writers[p] = w
	}
	return w
}

// Append writes the record and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(ctx context.Context, rec Record) error {
	_ = ctx
	if rec.Partition == "" {
		return fmt.Errorf("record %s has no partition", rec.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.writer(rec.Partition)).Encode(rec)
}

// Query reads rotated backups before the live file of each partition.
// Backups are named <partition>-<timestamp>.jsonl and sort before the live
// <partition>.jsonl.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := "*"
	if q.Partition != "" {
		prefix = string(q.Partition) + "*"
	}
	files, err := filepath.Glob(filepath.Join(s.dir, prefix+".jsonl"))
	if err != nil {
		return nil, err
	}
	return readFiles(ctx, files, q)
}

// Reset closes the partition writers and removes the live files together
// with their rotated backups.
func (s *RotatingJSONLStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeWriters(); err != nil {
		return err
	}
	for _, p := range Partitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		backups, err := filepath.Glob(filepath.Join(s.dir, string(p)+"-*.jsonl"))
		if err != nil {
			return err
		}
		for _, name := range append(backups, filepath.Join(s.dir, string(p)+".jsonl")) {
			if err := removeIfExists(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every partition writer.
func (s *RotatingJSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeWriters()
}

func (s *RotatingJSONLStore) closeWriters() error {
	var first error
	for p, w := range s.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
		delete(s.writers, p)
	}
	return first
}
