package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *ProblemInstance {
	return &ProblemInstance{
		Category: "work",
		Events: []Interval{
			{Label: "A", Start: MustClock("09:00"), End: MustClock("10:00")},
			{Label: "B", Start: MustClock("09:30"), End: MustClock("10:30")},
			{Label: "C", Start: MustClock("11:00"), End: MustClock("12:00")},
		},
		Priorities:   []string{"C"},
		OptimalScore: 180,
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Clock
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"9:30", 0, false},
		{"+1:30", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.ok {
			require.NoError(t, err, c.in)
			assert.Equal(t, c.want, got, c.in)
			assert.Equal(t, c.in, got.String())
		} else {
			assert.ErrorIs(t, err, ErrClockFormat, c.in)
		}
	}
}

func TestClockAbsoluteRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	day := time.Date(2025, 3, 14, 17, 45, 12, 0, loc)
	for c := Clock(0); c < MinutesPerDay; c += 7 {
		abs := c.At(day)
		if abs.Day() != 14 {
			t.Fatalf("%s left the day: %v", c, abs)
		}
		if got := ClockOf(abs); got != c {
			t.Fatalf("round trip %s -> %v -> %s", c, abs, got)
		}
	}
}

func TestClockJSON(t *testing.T) {
	b, err := json.Marshal(Interval{Label: "x", Start: 60, End: 90})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"x","start":"01:00","end":"01:30"}`, string(b))
	var iv Interval
	require.NoError(t, json.Unmarshal(b, &iv))
	assert.Equal(t, 30, iv.Duration())
}

func TestWeighted(t *testing.T) {
	p := sample()
	w := p.Weighted()
	require.Len(t, w, 3)
	assert.Equal(t, 60, w[0].Value())
	assert.Equal(t, 120, w[2].Value())
	assert.True(t, w[2].Priority())
}

func TestValidate(t *testing.T) {
	require.NoError(t, sample().Validate())

	dup := sample()
	dup.Events[1].Label = "A"
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateLabel)

	noPrio := sample()
	noPrio.Priorities = nil
	assert.ErrorIs(t, noPrio.Validate(), ErrNoPriorities)

	unknown := sample()
	unknown.Priorities = []string{"Z"}
	assert.ErrorIs(t, unknown.Validate(), ErrUnknownPriority)

	unsorted := sample()
	unsorted.Events[0], unsorted.Events[2] = unsorted.Events[2], unsorted.Events[0]
	assert.ErrorIs(t, unsorted.Validate(), ErrUnsorted)

	inverted := sample()
	inverted.Events[0].End = inverted.Events[0].Start
	assert.True(t, errors.Is(inverted.Validate(), ErrInvalidInterval))
}

func TestPromptLayout(t *testing.T) {
	p := sample()
	p.Priorities = []string{"C", "A"}
	want := "Events:\n- A (09:00 - 10:00)\n- B (09:30 - 10:30)\n- C (11:00 - 12:00)\n\nPriorities:\n- C\n- A"
	assert.Equal(t, want, p.Prompt())
}

func TestContains(t *testing.T) {
	p := sample()
	assert.True(t, p.Contains(Entry{Label: "A", Start: "09:00", End: "10:00"}))
	assert.False(t, p.Contains(Entry{Label: "A", Start: "9:00", End: "10:00"}))
	assert.False(t, p.Contains(Entry{Label: "Z", Start: "23:00", End: "23:30"}))
}

func TestRecordRoundTrip(t *testing.T) {
	p := sample()
	rec := NewRecord(p)
	assert.Equal(t, [3]string{"B", "09:30", "10:30"}, rec.Events[1])
	assert.Equal(t, p.Prompt(), rec.Prompt)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var back InstanceRecord
	require.NoError(t, json.Unmarshal(b, &back))
	got, err := back.Instance()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
