package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// maxLine bounds a single record line; prompts are a few hundred bytes.
const maxLine = 1 << 20

// JSONLStore keeps one line-delimited file per partition inside a directory,
// e.g. data/train.jsonl and data/test.jsonl.
type JSONLStore struct {
	dir string
	mu  sync.Mutex
}

func NewJSONLStore(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONLStore{dir: dir}, nil
}

// Path returns the file backing partition p.
func (s *JSONLStore) Path(p Partition) string {
	return filepath.Join(s.dir, string(p)+".jsonl")
}

func (s *JSONLStore) Append(ctx context.Context, rec Record) error {
	if rec.Partition == "" {
		return fmt.Errorf("record %s has no partition", rec.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.Path(rec.Partition), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var files []string
	if q.Partition != "" {
		files = []string{s.Path(q.Partition)}
	} else {
		var err error
		files, err = filepath.Glob(filepath.Join(s.dir, "*.jsonl"))
		if err != nil {
			return nil, err
		}
	}
	return readFiles(ctx, files, q)
}

// Reset removes the partition files. Other files in the directory are kept.
func (s *JSONLStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range Partitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := removeIfExists(s.Path(p)); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONLStore) Close() error { return nil }

func removeIfExists(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// readFiles scans files in order. Missing files hold no records.
func readFiles(ctx context.Context, files []string, q Query) ([]Record, error) {
	var res []Record
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err = scanRecords(f, q, res)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if q.full(len(res)) {
			break
		}
	}
	return res, nil
}

func scanRecords(r io.Reader, q Query, res []Record) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		if !q.match(rec) {
			continue
		}
		res = append(res, rec)
		if q.full(len(res)) {
			break
		}
	}
	return res, scanner.Err()
}
