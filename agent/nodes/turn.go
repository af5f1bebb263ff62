// Package turnnode holds the node functions of the conversation turn
// pipeline. Each function does one step and threads the shared GraphState;
// the orchestrator wires them into a compiled graph.
package turnnode

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/verzel/sdr-agent/agent/contract"
	interpretx "github.com/verzel/sdr-agent/agent/interpret"
	workflowx "github.com/verzel/sdr-agent/agent/workflow"
)

type GraphInput struct {
	History []contractx.ChatTurn
}

type GraphOutput struct {
	Result contractx.TurnResult
}

type GraphState struct {
	History []contractx.ChatTurn
	Now     time.Time

	Reply       string
	Interpreted interpretx.Result
	Outcome     *workflowx.QualificationOutcome
}

// ValidateTurn normalizes the inbound history. An empty history is allowed:
// the model may still produce an opening message.
func ValidateTurn(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	history := make([]contractx.ChatTurn, 0, len(in.History))
	for _, turn := range in.History {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		history = append(history, turn)
	}

	return &GraphState{
		History: history,
		Now:     nowFn().UTC(),
	}, nil
}

// GenerateReply calls the language-model collaborator with the full history.
func GenerateReply(ctx context.Context, in *GraphState, model contractx.ModelClient) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, err := model.GenerateReply(ctx, in.History)
	if err != nil {
		return nil, err
	}
	in.Reply = reply
	return in, nil
}

// InterpretReply classifies the raw reply as dialogue or an action trigger.
func InterpretReply(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Interpreted = interpretx.Interpret(in.Reply)
	return in, nil
}

// DispatchAction runs the qualification workflow when a trigger was
// recognized. It runs at most once per turn.
func DispatchAction(ctx context.Context, in *GraphState, qualifier *workflowx.Qualifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Interpreted.IsTrigger() {
		return in, nil
	}

	out := qualifier.Qualify(ctx, *in.Interpreted.Trigger)
	in.Outcome = &out
	return in, nil
}

// FinalizeTurn maps the pipeline state onto a structured TurnResult.
func FinalizeTurn(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Outcome == nil {
		return GraphOutput{Result: contractx.TurnResult{
			Kind: contractx.TurnDialogue,
			Text: in.Interpreted.Dialogue,
		}}, nil
	}

	out := *in.Outcome
	switch out.Kind {
	case workflowx.QualificationRegisteredOnly:
		ref := out.CardRef
		return GraphOutput{Result: contractx.TurnResult{
			Kind:    contractx.TurnLeadRegistered,
			Text:    "Thanks! Your details are registered; our team will reach out soon.",
			CardRef: &ref,
		}}, nil
	case workflowx.QualificationSlotsOffered:
		ref := out.CardRef
		lead := out.Lead
		return GraphOutput{Result: contractx.TurnResult{
			Kind:    contractx.TurnSlotsOffered,
			Slots:   out.Slots,
			Lead:    &lead,
			CardRef: &ref,
		}}, nil
	case workflowx.QualificationNoSlots:
		ref := out.CardRef
		return GraphOutput{Result: contractx.TurnResult{
			Kind:    contractx.TurnNoSlots,
			Text:    "You're registered, but no meeting slots are open right now; our team will contact you to schedule.",
			CardRef: &ref,
		}}, nil
	case workflowx.QualificationCrmFailure:
		return GraphOutput{Result: contractx.TurnResult{
			Kind:   contractx.TurnCrmFailure,
			Detail: out.Detail,
		}}, nil
	default:
		return GraphOutput{}, fmt.Errorf("%w: unknown qualification outcome %q", contractx.ErrValidation, out.Kind)
	}
}
