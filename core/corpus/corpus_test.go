package corpus

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/planday/core/factory"
	"github.com/kilianp07/planday/core/model"
)

func instance(category string, labels ...string) *model.ProblemInstance {
	p := &model.ProblemInstance{Category: category, Priorities: []string{labels[0]}}
	start := model.MustClock("08:00")
	for _, l := range labels {
		p.Events = append(p.Events, model.Interval{Label: l, Start: start, End: start + 30})
		start += 45
	}
	p.OptimalScore = 30 * (len(labels) + 1)
	return p
}

func sample(n int) []*model.ProblemInstance {
	cats := []string{"Work", "Health"}
	out := make([]*model.ProblemInstance, n)
	for i := range out {
		out[i] = instance(cats[i%2], "a", "b", "c")
	}
	return out
}

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSplit(t *testing.T) {
	recs, err := Split(sample(20), 5, 42, created)
	require.NoError(t, err)
	require.Len(t, recs, 20)
	assert.Equal(t, map[Partition]int{Train: 15, Test: 5}, Count(recs))
	for i, r := range recs {
		if i < 15 {
			assert.Equal(t, Train, r.Partition)
		} else {
			assert.Equal(t, Test, r.Partition)
		}
	}

	ids := make(map[string]bool)
	for _, r := range recs {
		assert.False(t, ids[r.ID.String()], "duplicate id %s", r.ID)
		ids[r.ID.String()] = true
		assert.Equal(t, created, r.CreatedAt)
		inst, err := r.Instance()
		require.NoError(t, err)
		assert.Equal(t, r.OptimalScore, inst.OptimalScore)
	}

	again, err := Split(sample(20), 5, 42, created)
	require.NoError(t, err)
	if diff := cmp.Diff(recs, again); diff != "" {
		t.Fatalf("split not reproducible (-first +second):\n%s", diff)
	}
	other, err := Split(sample(20), 5, 7, created)
	require.NoError(t, err)
	assert.NotEqual(t, recs[0].ID, other[0].ID)

	_, err = Split(sample(3), 4, 1, created)
	assert.Error(t, err)
}

func TestRecordJSON(t *testing.T) {
	recs, err := Split(sample(1), 1, 1, created)
	require.NoError(t, err)
	data, err := json.Marshal(recs[0])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"id", "partition", "created_at", "category", "events", "priority_events", "optimal_score", "prompt"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, "test", m["partition"])
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "plain"))
	require.NoError(t, err)
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rotating"), RotatingOptions{MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1})
	require.NoError(t, err)
	sq, err := NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	out := map[string]Store{"jsonl": jsonl, "rotating": rot, "sqlite": sq}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStoresAppendQuery(t *testing.T) {
	recs, err := Split(sample(10), 4, 3, created)
	require.NoError(t, err)
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, AppendAll(ctx, s, recs))

			test, err := s.Query(ctx, Query{Partition: Test})
			require.NoError(t, err)
			if diff := cmp.Diff(recs[6:], test); diff != "" {
				t.Fatalf("test partition mismatch (-want +got):\n%s", diff)
			}

			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			assert.Len(t, all, 10)

			work, err := s.Query(ctx, Query{Partition: Train, Category: "Work"})
			require.NoError(t, err)
			for _, r := range work {
				assert.Equal(t, "Work", r.Category)
				assert.Equal(t, Train, r.Partition)
			}
			wantWork := 0
			for _, r := range recs[:6] {
				if r.Category == "Work" {
					wantWork++
				}
			}
			assert.Len(t, work, wantWork)

			limited, err := s.Query(ctx, Query{Partition: Train, Limit: 2})
			require.NoError(t, err)
			if diff := cmp.Diff(recs[:2], limited); diff != "" {
				t.Fatalf("limited query mismatch (-want +got):\n%s", diff)
			}

			assert.Error(t, s.Append(ctx, Record{ID: recs[0].ID}))
		})
	}
}

func TestStoresResetReplacesCorpus(t *testing.T) {
	recs, err := Split(sample(6), 2, 11, created)
	require.NoError(t, err)
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, AppendAll(ctx, s, recs))
			require.NoError(t, s.Reset(ctx))
			got, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			assert.Empty(t, got)

			// Same seed, same ids: a rebuild must not collide with the old rows.
			require.NoError(t, AppendAll(ctx, s, recs))
			got, err = s.Query(ctx, Query{})
			require.NoError(t, err)
			if diff := cmp.Diff(recs, got); diff != "" {
				t.Fatalf("rebuilt corpus mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, s.Reset(ctx))
			require.NoError(t, s.Reset(ctx))
		})
	}
}

func TestResetKeepsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "completions.jsonl")
	require.NoError(t, os.WriteFile(other, []byte("{}\n"), 0o644))
	backup := filepath.Join(dir, "train-2025-03-01T12-00-00.000.jsonl")
	require.NoError(t, os.WriteFile(backup, []byte("{}\n"), 0o644))

	s, err := NewRotatingJSONLStore(dir, RotatingOptions{MaxSizeMB: 1})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Reset(context.Background()))

	_, err = os.Stat(backup)
	assert.True(t, os.IsNotExist(err), "backup should be removed")
	_, err = os.Stat(other)
	assert.NoError(t, err)

	plain, err := NewJSONLStore(dir)
	require.NoError(t, err)
	require.NoError(t, plain.Reset(context.Background()))
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestJSONLStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLStore(dir)
	require.NoError(t, err)
	recs, err := Split(sample(4), 1, 9, created)
	require.NoError(t, err)
	require.NoError(t, AppendAll(context.Background(), s, recs))

	for _, name := range []string{"train.jsonl", "test.jsonl"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	empty, err := NewJSONLStore(t.TempDir())
	require.NoError(t, err)
	got, err := empty.Query(context.Background(), Query{Partition: Test})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONLStoreRejectsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.jsonl"), []byte("{not json}\n"), 0o644))
	s, err := NewJSONLStore(dir)
	require.NoError(t, err)
	_, err = s.Query(context.Background(), Query{Partition: Test})
	assert.ErrorContains(t, err, "line 1")
}

func TestRotatingStoreReadsBackups(t *testing.T) {
	dir := t.TempDir()
	recs, err := Split(sample(2), 0, 5, created)
	require.NoError(t, err)
	backup, err := json.Marshal(recs[0])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-2025-03-01T12-00-00.000.jsonl"), append(backup, '\n'), 0o644))

	s, err := NewRotatingJSONLStore(dir, RotatingOptions{MaxSizeMB: 1})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Append(context.Background(), recs[1]))

	got, err := s.Query(context.Background(), Query{Partition: Train})
	require.NoError(t, err)
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Fatalf("backup not read first (-want +got):\n%s", diff)
	}
}

func TestStoresRegistry(t *testing.T) {
	reg := Stores()
	assert.Equal(t, []string{"jsonl", "rotating", "sqlite"}, reg.Types())

	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = reg.Create(factory.ModuleConfig{Type: "rotating", Conf: map[string]any{"path": t.TempDir(), "max_size_mb": "5"}})
	require.NoError(t, err)
	assert.Equal(t, 5, s.(*RotatingJSONLStore).opts.MaxSizeMB)
	require.NoError(t, s.Close())

	_, err = reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{}})
	assert.ErrorContains(t, err, "path")

	_, err = reg.Create(factory.ModuleConfig{Type: "parquet"})
	assert.Error(t, err)
}
