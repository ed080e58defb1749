package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/core/optimizer"
)

// Format names an instance file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported instance format: %s", filepath.Ext(path))
	}
}

// rawEvent accepts either a [label, start, end] triple or a
// {label, start, end} mapping. "name" is accepted for "label".
type rawEvent struct {
	Label, Start, End string
}

type eventFields struct {
	Label string `json:"label" yaml:"label"`
	Name  string `json:"name" yaml:"name"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

func (e *rawEvent) fromFields(f eventFields) {
	e.Label, e.Start, e.End = f.Label, f.Start, f.End
	if e.Label == "" {
		e.Label = f.Name
	}
}

func (e *rawEvent) UnmarshalJSON(b []byte) error {
	var triple []string
	if err := json.Unmarshal(b, &triple); err == nil {
		return e.fromTriple(triple)
	}
	var f eventFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	e.fromFields(f)
	return nil
}

func (e *rawEvent) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var triple []string
		if err := n.Decode(&triple); err != nil {
			return err
		}
		return e.fromTriple(triple)
	}
	var f eventFields
	if err := n.Decode(&f); err != nil {
		return err
	}
	e.fromFields(f)
	return nil
}

func (e *rawEvent) fromTriple(t []string) error {
	if len(t) != 3 {
		return fmt.Errorf("event needs [label, start, end], got %d values", len(t))
	}
	e.Label, e.Start, e.End = t[0], t[1], t[2]
	return nil
}

// rawInstance covers both the corpus record layout and the native one.
type rawInstance struct {
	Category       string     `json:"category" yaml:"category"`
	Events         []rawEvent `json:"events" yaml:"events"`
	Priorities     []string   `json:"priorities" yaml:"priorities"`
	PriorityEvents []string   `json:"priority_events" yaml:"priority_events"`
	OptimalScore   *int       `json:"optimal_score" yaml:"optimal_score"`
}

// DecodeInstance reads an instance. Events are sorted by start; a missing
// optimal score is computed.
func DecodeInstance(r io.Reader, f Format) (*model.ProblemInstance, error) {
	var raw rawInstance
	switch f {
	case JSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, err
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported instance format: %s", f)
	}

	inst := &model.ProblemInstance{
		Category:   raw.Category,
		Events:     make([]model.Interval, len(raw.Events)),
		Priorities: append(append([]string(nil), raw.Priorities...), raw.PriorityEvents...),
	}
	for i, e := range raw.Events {
		iv, err := model.Entry{Label: e.Label, Start: e.Start, End: e.End}.Interval()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		inst.Events[i] = iv
	}
	interval.SortByStart(inst.Events)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if raw.OptimalScore != nil {
		inst.OptimalScore = *raw.OptimalScore
	} else {
		inst.OptimalScore = optimizer.OptimalScore(inst.Events, inst.Priorities)
	}
	return inst, nil
}

// ReadInstance opens path and decodes it by extension.
func ReadInstance(path string) (*model.ProblemInstance, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	inst, err := DecodeInstance(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}
