package contract

import "context"

// ModelClient is the language-model collaborator. It receives the full
// ordered history on every call; qualification state is reconstructed by the
// model from context.
type ModelClient interface {
	GenerateReply(ctx context.Context, history []ChatTurn) (string, error)
}

// CRM is the pipeline collaborator (Pipefy in production).
type CRM interface {
	CreateCard(ctx context.Context, lead Lead) (CardRef, error)
	UpdateCardMeeting(ctx context.Context, cardID string, conf MeetingConfirmation) error
}

// Scheduler is the meeting collaborator (Calendly in production).
type Scheduler interface {
	ListSlots(ctx context.Context) ([]Slot, error)
	Book(ctx context.Context, slot Slot, lead Lead) (MeetingConfirmation, error)
}

// Journal records lead events for operators. Implementations must tolerate
// being called on every outcome; callers treat failures as warnings.
type Journal interface {
	Record(ctx context.Context, ev LeadEvent) error
}
