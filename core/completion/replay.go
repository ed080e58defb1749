package completion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ReplayLine is one line of a replay file.
type ReplayLine struct {
	ID         string `json:"id"`
	Completion string `json:"completion"`
}

// Replay answers requests from completions recorded earlier, keyed by the
// corpus record id.
type Replay struct {
	byID map[string]string
}

// NewReplay indexes the completions in a line-delimited file. A later line
// replaces an earlier one with the same id.
func NewReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := &Replay{byID: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	n := 0
	for scanner.Scan() {
		n++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var l ReplayLine
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, n, err)
		}
		if l.ID == "" {
			return nil, fmt.Errorf("%s line %d: missing id", path, n)
		}
		r.byID[l.ID] = l.Completion
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Len returns the number of indexed completions.
func (r *Replay) Len() int { return len(r.byID) }

func (r *Replay) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := r.byID[req.ID]
	if !ok {
		return "", fmt.Errorf("request %s: %w", req.ID, ErrNoCompletion)
	}
	return text, nil
}
