// Package completion defines the collaborator that turns an instance prompt
// into candidate schedule text, and the local implementations of it.
package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/core/optimizer"
	"github.com/kilianp07/planday/core/validator"
)

// ErrNoCompletion is returned when a source holds nothing for a request.
var ErrNoCompletion = errors.New("no completion available")

// Request is one instance to be answered.
type Request struct {
	// ID identifies the corpus record the request was built from.
	ID       string                 `json:"id"`
	System   string                 `json:"system"`
	User     string                 `json:"user"`
	Instance *model.ProblemInstance `json:"-"`
}

// NewRequest builds the request for a stored instance: the fixed system
// prompt and the rules followed by the instance prompt.
func NewRequest(id string, rec model.InstanceRecord, inst *model.ProblemInstance) Request {
	return Request{ID: id, System: SystemPrompt, User: UserPrompt + rec.Prompt, Instance: inst}
}

// Completer produces candidate text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Completer.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Static answers every request with the same text.
type Static struct {
	Text string `json:"text"`
}

func (s Static) Complete(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}

// Oracle answers with the optimal plan of the request instance. It is the
// reference point of an evaluation run.
type Oracle struct{}

func (Oracle) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Instance == nil {
		return "", fmt.Errorf("request %s: %w", req.ID, ErrNoCompletion)
	}
	plan := optimizer.Solve(req.Instance)
	reasoning := fmt.Sprintf("Selected %d of %d events for a weighted duration of %d.",
		len(plan.Selected), len(req.Instance.Events), plan.Total)
	return validator.Render(model.ScheduleOf(plan.Intervals()), reasoning), nil
}
