package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/core/optimizer"
)

func sample() *model.ProblemInstance {
	iv := func(l, s, e string) model.Interval {
		return model.Interval{Label: l, Start: model.MustClock(s), End: model.MustClock(e)}
	}
	return &model.ProblemInstance{
		Category:     "work",
		Events:       []model.Interval{iv("A", "09:00", "10:00"), iv("B", "09:30", "10:30"), iv("C", "11:00", "12:00")},
		Priorities:   []string{"C"},
		OptimalScore: 180,
	}
}

func TestPlanDoc(t *testing.T) {
	inst := sample()
	doc := NewPlanDoc(inst, optimizer.Solve(inst))
	assert.Equal(t, 180, doc.Total)
	assert.Equal(t, 3, doc.Events)
	require.Len(t, doc.Selected, 2)
	assert.Equal(t, PlanRow{Label: "B", Start: "09:30", End: "10:30", Minutes: 60, Weight: 60}, doc.Selected[0])
	assert.Equal(t, PlanRow{Label: "C", Start: "11:00", End: "12:00", Minutes: 60, Priority: true, Weight: 120}, doc.Selected[1])
	assert.Equal(t, []string{"A"}, doc.Skipped)
}

func TestWriteJSON(t *testing.T) {
	inst := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewPlanDoc(inst, optimizer.Solve(inst))))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(180), got["total"])
	sel := got["selected"].([]any)
	require.Len(t, sel, 2)
	assert.Equal(t, "C", sel[1].(map[string]any)["name"])
}

func TestWriteCSV(t *testing.T) {
	inst := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, NewPlanDoc(inst, optimizer.Solve(inst))))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"name", "start", "end", "minutes", "priority", "weight"}, rows[0])
	assert.Equal(t, []string{"C", "11:00", "12:00", "60", "true", "120"}, rows[2])
}

func TestDecodeInstance(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
	}{
		{
			name:   "record triples json",
			format: JSON,
			body: `{"category":"work","events":[["B","09:30","10:30"],["A","09:00","10:00"],["C","11:00","12:00"]],
				"priority_events":["C"],"optimal_score":180}`,
		},
		{
			name:   "native json without score",
			format: JSON,
			body: `{"category":"work","events":[{"label":"A","start":"09:00","end":"10:00"},
				{"label":"B","start":"09:30","end":"10:30"},{"name":"C","start":"11:00","end":"12:00"}],
				"priorities":["C"]}`,
		},
		{
			name:   "yaml mappings",
			format: YAML,
			body: `category: work
events:
  - {label: A, start: "09:00", end: "10:00"}
  - {label: B, start: "09:30", end: "10:30"}
  - {label: C, start: "11:00", end: "12:00"}
priorities: [C]
`,
		},
		{
			name:   "yaml triples",
			format: YAML,
			body: `category: work
events:
  - [C, "11:00", "12:00"]
  - [A, "09:00", "10:00"]
  - [B, "09:30", "10:30"]
priority_events: [C]
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := DecodeInstance(strings.NewReader(tt.body), tt.format)
			require.NoError(t, err)
			assert.Equal(t, sample(), inst)
		})
	}
}

func TestDecodeInstanceErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
	}{
		{"short triple", JSON, `{"events":[["A","09:00"]],"priorities":["A"]}`},
		{"bad clock", JSON, `{"events":[["A","9am","10:00"]],"priorities":["A"]}`},
		{"unknown priority", JSON, `{"events":[["A","09:00","10:00"]],"priorities":["Z"]}`},
		{"no events", YAML, "priorities: [A]\n"},
		{"unknown format", Format("toml"), `x = 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInstance(strings.NewReader(tt.body), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestReadInstance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inst.yml")
	require.NoError(t, os.WriteFile(path, []byte("category: work\nevents:\n  - [A, \"09:00\", \"10:00\"]\npriorities: [A]\n"), 0o600))

	inst, err := ReadInstance(path)
	require.NoError(t, err)
	assert.Equal(t, 120, inst.OptimalScore)

	_, err = ReadInstance(filepath.Join(dir, "inst.txt"))
	assert.Error(t, err)
	_, err = ReadInstance(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
