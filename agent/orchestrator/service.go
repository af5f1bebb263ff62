// Package orchestrator coordinates one conversation turn: language-model
// invocation, response interpretation, and routing to the side-effecting
// workflows. It holds no cross-turn state; the card ref and lead data travel
// in the request and response payloads.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/verzel/sdr-agent/agent/contract"
	nodex "github.com/verzel/sdr-agent/agent/nodes"
	workflowx "github.com/verzel/sdr-agent/agent/workflow"
)

type Orchestrator struct {
	model     contractx.ModelClient
	qualifier *workflowx.Qualifier
	booker    *workflowx.Booker

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*settings)

type settings struct {
	journal contractx.Journal
	now     func() time.Time
}

// WithJournal attaches a lead-event journal; without it events are discarded.
func WithJournal(journal contractx.Journal) Option {
	return func(s *settings) {
		if journal != nil {
			s.journal = journal
		}
	}
}

// WithClock overrides the time source. Tests use it for deterministic events.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	model contractx.ModelClient,
	crm contractx.CRM,
	scheduler contractx.Scheduler,
	opts ...Option,
) (*Orchestrator, error) {
	if model == nil {
		return nil, errors.New("model client is required")
	}
	if crm == nil {
		return nil, errors.New("crm collaborator is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler collaborator is required")
	}

	s := settings{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	o := &Orchestrator{
		model:     model,
		qualifier: workflowx.NewQualifier(crm, scheduler, s.journal),
		booker:    workflowx.NewBooker(crm, scheduler, s.journal),
		now:       s.now,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one conversation turn over the full caller-owned history.
func (o *Orchestrator) HandleTurn(ctx context.Context, history []contractx.ChatTurn) (contractx.TurnResult, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{History: history})
	if err != nil {
		return contractx.TurnResult{}, err
	}
	return out.Result, nil
}

// HandleBooking wraps the meeting booking workflow once the end user has
// picked a slot from a prior slots-offered result. Workflow failures are
// result variants, not errors; the caller maps them to its own status codes.
func (o *Orchestrator) HandleBooking(
	ctx context.Context,
	slot contractx.Slot,
	lead contractx.Lead,
	cardRef contractx.CardRef,
) (contractx.TurnResult, error) {
	out := o.booker.Book(ctx, slot, lead, cardRef)

	switch out.Kind {
	case workflowx.BookingBooked:
		conf := out.Confirmation
		return contractx.TurnResult{
			Kind:         contractx.TurnMeetingBooked,
			Text:         "Your meeting is booked. See you there!",
			Confirmation: &conf,
		}, nil
	case workflowx.BookingCrmUpdateFailed:
		conf := out.Confirmation
		return contractx.TurnResult{
			Kind:         contractx.TurnMeetingBooked,
			Text:         "Your meeting is booked. See you there!",
			Confirmation: &conf,
			Warning:      out.Detail,
		}, nil
	case workflowx.BookingFailed:
		return contractx.TurnResult{
			Kind:   contractx.TurnBookingFailed,
			Detail: out.Detail,
		}, nil
	case workflowx.BookingInvalidLead:
		return contractx.TurnResult{
			Kind:   contractx.TurnInvalidLead,
			Detail: out.Detail,
		}, nil
	default:
		return contractx.TurnResult{}, errors.New("unknown booking outcome")
	}
}
