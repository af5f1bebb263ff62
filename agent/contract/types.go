package contract

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one entry of the caller-owned conversation history. The agent
// never mutates history; the client appends the reply and resends everything
// on the next turn.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Lead holds the data the model extracts across turns. All fields except
// InterestConfirmed are free text.
type Lead struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Company           string `json:"company"`
	Need              string `json:"need"`
	InterestConfirmed bool   `json:"interest_confirmed"`
}

// Complete reports whether every required field has been collected.
func (l Lead) Complete() bool {
	return l.Name != "" && l.Email != "" && l.Company != "" && l.Need != ""
}

const ActionCreateLead = "create_lead"

// ActionTrigger is a model reply recognized as a structured directive rather
// than conversational text. create_lead is the only recognized action.
type ActionTrigger struct {
	Action string `json:"action"`
	Lead   Lead   `json:"data"`
}

// CardRef identifies a pipeline card created for a lead. It is returned to
// the caller and supplied back on the booking call; the agent keeps no
// cross-turn state.
type CardRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Slot is one offered meeting opportunity.
type Slot struct {
	StartTime  time.Time `json:"start_time"`
	BookingRef string    `json:"booking_ref"`
}

type MeetingConfirmation struct {
	MeetingLink string    `json:"meeting_link"`
	MeetingTime time.Time `json:"meeting_time"`
}

// LeadEvent is an append-only journal entry recording a qualification or
// booking outcome for operator visibility.
type LeadEvent struct {
	Kind       string    `json:"kind"`
	CardID     string    `json:"card_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TurnResultKind string

const (
	TurnDialogue       TurnResultKind = "dialogue"
	TurnLeadRegistered TurnResultKind = "lead_registered"
	TurnSlotsOffered   TurnResultKind = "slots_offered"
	TurnNoSlots        TurnResultKind = "no_slots"
	TurnCrmFailure     TurnResultKind = "crm_failure"
	TurnMeetingBooked  TurnResultKind = "meeting_booked"
	TurnBookingFailed  TurnResultKind = "booking_failed"
	TurnInvalidLead    TurnResultKind = "invalid_lead"
)

// TurnResult is the structured outcome of one turn or booking call. The kind
// tells the caller whether Text is a plain reply or which action fields are
// populated, so nothing has to be re-parsed downstream.
type TurnResult struct {
	Kind         TurnResultKind       `json:"kind"`
	Text         string               `json:"text,omitempty"`
	Lead         *Lead                `json:"lead,omitempty"`
	CardRef      *CardRef             `json:"card_ref,omitempty"`
	Slots        []Slot               `json:"slots,omitempty"`
	Confirmation *MeetingConfirmation `json:"confirmation,omitempty"`
	Warning      string               `json:"warning,omitempty"`
	Detail       string               `json:"detail,omitempty"`
}
