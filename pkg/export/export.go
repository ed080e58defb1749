// Package export renders optimal plans for humans and tools, and reads
// problem instances from files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/core/optimizer"
)

// PlanRow is one selected event.
type PlanRow struct {
	Label    string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Minutes  int    `json:"minutes"`
	Priority bool   `json:"priority"`
	Weight   int    `json:"weight"`
}

// PlanDoc is the JSON document describing a solved instance.
type PlanDoc struct {
	Category string    `json:"category,omitempty"`
	Total    int       `json:"total"`
	Events   int       `json:"events"`
	Selected []PlanRow `json:"selected"`
	// Skipped lists the events left out of the plan.
	Skipped []string `json:"skipped"`
}

// NewPlanDoc describes plan as a solution of inst.
func NewPlanDoc(inst *model.ProblemInstance, plan optimizer.Plan[int]) PlanDoc {
	doc := PlanDoc{
		Category: inst.Category,
		Total:    plan.Total,
		Events:   len(inst.Events),
		Selected: make([]PlanRow, 0, len(plan.Selected)),
		Skipped:  []string{},
	}
	chosen := make(map[string]bool, len(plan.Selected))
	for _, j := range plan.Selected {
		chosen[j.Label] = true
		doc.Selected = append(doc.Selected, PlanRow{
			Label:    j.Label,
			Start:    j.Start.String(),
			End:      j.End.String(),
			Minutes:  j.Duration(),
			Priority: inst.IsPriority(j.Label),
			Weight:   j.Weight,
		})
	}
	for _, ev := range inst.Events {
		if !chosen[ev.Label] {
			doc.Skipped = append(doc.Skipped, ev.Label)
		}
	}
	return doc
}

// WriteJSON writes the plan document to w in JSON format.
func WriteJSON(w io.Writer, doc PlanDoc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV writes the selected events to w with a header row.
func WriteCSV(w io.Writer, doc PlanDoc) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "start", "end", "minutes", "priority", "weight"}); err != nil {
		return err
	}
	for _, r := range doc.Selected {
		rec := []string{
			r.Label,
			r.Start,
			r.End,
			strconv.Itoa(r.Minutes),
			strconv.FormatBool(r.Priority),
			strconv.Itoa(r.Weight),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
