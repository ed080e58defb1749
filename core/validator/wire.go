package validator

import (
	"regexp"
	"strings"

	"github.com/kilianp07/planday/core/model"
)

var (
	// formatRe requires a non-empty reasoning block followed by a schedule
	// block holding at least one complete event.
	formatRe = regexp.MustCompile(`^(?s)<think>.+</think>.*<schedule>.*(<event>.*<name>.+</name>.*<start>\d{2}:\d{2}</start>.*<end>\d{2}:\d{2}</end>.*</event>)+.*</schedule>`)
	entryRe  = regexp.MustCompile(`<event>\s*<name>([^<]+)</name>\s*<start>(\d{2}:\d{2})</start>\s*<end>(\d{2}:\d{2})</end>\s*</event>`)
)

// WellFormed reports whether raw has the reasoning and schedule blocks.
func WellFormed(raw string) bool { return formatRe.MatchString(raw) }

// Parse extracts the scheduled entries of raw in the order they appear.
// Labels are trimmed; times are kept verbatim.
func Parse(raw string) model.CandidateSchedule {
	matches := entryRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(model.CandidateSchedule, len(matches))
	for i, m := range matches {
		out[i] = model.Entry{Label: strings.TrimSpace(m[1]), Start: m[2], End: m[3]}
	}
	return out
}

// Render produces candidate text in the wire format. An empty reasoning is
// replaced by an ellipsis since the reasoning block may not be empty.
func Render(schedule model.CandidateSchedule, reasoning string) string {
	if reasoning == "" {
		reasoning = "..."
	}
	var b strings.Builder
	b.WriteString("<think>")
	b.WriteString(reasoning)
	b.WriteString("</think>\n<schedule>\n")
	for _, e := range schedule {
		b.WriteString("<event>\n<name>")
		b.WriteString(e.Label)
		b.WriteString("</name>\n<start>")
		b.WriteString(e.Start)
		b.WriteString("</start>\n<end>")
		b.WriteString(e.End)
		b.WriteString("</end>\n</event>\n")
	}
	b.WriteString("</schedule>")
	return b.String()
}
