package validator

import "fmt"

// Reason is the outcome of the structural checks on a candidate. Exactly one
// reason is reported per candidate: the first failing check, or Valid.
type Reason int

const (
	Valid Reason = iota
	FormatInvalid
	TooFewEvents
	EventNotInOriginalList
	TimeFormatError
	NotSorted
	OverlappingEvents
)

var reasonNames = [...]string{
	Valid:                  "valid",
	FormatInvalid:          "format_invalid",
	TooFewEvents:           "too_few_events",
	EventNotInOriginalList: "event_not_in_original_list",
	TimeFormatError:        "time_format_error",
	NotSorted:              "not_sorted",
	OverlappingEvents:      "overlapping_events",
}

// Reasons lists every reason in check order, Valid first.
func Reasons() []Reason {
	out := make([]Reason, len(reasonNames))
	for i := range out {
		out[i] = Reason(i)
	}
	return out
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return reasonNames[r]
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) (Reason, error) {
	for i, name := range reasonNames {
		if name == s {
			return Reason(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reason %q", s)
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Reason) UnmarshalText(b []byte) error {
	v, err := ParseReason(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Policy selects how a candidate is scored.
type Policy int

const (
	// Strict rejects on the first failed check and scores valid candidates
	// by their weighted duration relative to the optimum, out of 100.
	Strict Policy = iota
	// PartialCredit awards separate points for format, ordering and
	// efficiency, dropping overlapping entries instead of rejecting.
	PartialCredit
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case PartialCredit:
		return "partial"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "strict", "partial" and "partial_credit".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "partial", "partial_credit":
		return PartialCredit, nil
	default:
		return 0, fmt.Errorf("unknown policy %q", s)
	}
}

func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
