package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

type BookingKind string

const (
	BookingBooked          BookingKind = "booked"
	BookingCrmUpdateFailed BookingKind = "booked_crm_update_failed"
	BookingFailed          BookingKind = "booking_failed"
	BookingInvalidLead     BookingKind = "invalid_lead"
)

// BookingOutcome is a tagged result; the confirmation is set for both the
// full-success and the crm-update-failed variants.
type BookingOutcome struct {
	Kind         BookingKind
	Confirmation contractx.MeetingConfirmation
	Detail       string
}

// Booker runs the meeting booking workflow.
type Booker struct {
	crm       contractx.CRM
	scheduler contractx.Scheduler
	journal   contractx.Journal
	now       func() time.Time
}

func NewBooker(crm contractx.CRM, scheduler contractx.Scheduler, journal contractx.Journal) *Booker {
	if journal == nil {
		journal = NoopJournal{}
	}
	return &Booker{
		crm:       crm,
		scheduler: scheduler,
		journal:   journal,
		now:       time.Now,
	}
}

// Book schedules the chosen slot and propagates the confirmation to the
// pipeline card. An empty lead email is rejected before any collaborator
// call. A booking failure leaves the card unmodified; no compensating action
// is taken. A card update failure after a successful booking is downgraded to
// a warning that still carries the confirmation: booking success is never
// hidden behind an unrelated system's failure.
func (b *Booker) Book(ctx context.Context, slot contractx.Slot, lead contractx.Lead, cardRef contractx.CardRef) BookingOutcome {
	if lead.Email == "" {
		return BookingOutcome{
			Kind:   BookingInvalidLead,
			Detail: "lead email is required to book a meeting",
		}
	}

	conf, err := b.scheduler.Book(ctx, slot, lead)
	if err != nil {
		log.Error().Err(err).Str("card_id", cardRef.ID).Msg("meeting booking failed")
		out := BookingOutcome{Kind: BookingFailed, Detail: err.Error()}
		b.record(ctx, lead, cardRef, out)
		return out
	}
	log.Info().
		Str("card_id", cardRef.ID).
		Time("meeting_time", conf.MeetingTime).
		Msg("meeting booked")

	if err := b.crm.UpdateCardMeeting(ctx, cardRef.ID, conf); err != nil {
		// The meeting exists even though the card is stale; surface it to
		// the operator instead of retrying.
		log.Warn().Err(err).Str("card_id", cardRef.ID).Msg("crm card update failed after booking")
		out := BookingOutcome{
			Kind:         BookingCrmUpdateFailed,
			Confirmation: conf,
			Detail:       err.Error(),
		}
		b.record(ctx, lead, cardRef, out)
		return out
	}

	out := BookingOutcome{Kind: BookingBooked, Confirmation: conf}
	b.record(ctx, lead, cardRef, out)
	return out
}

func (b *Booker) record(ctx context.Context, lead contractx.Lead, cardRef contractx.CardRef, out BookingOutcome) {
	ev := contractx.LeadEvent{
		Kind:       string(out.Kind),
		CardID:     cardRef.ID,
		Email:      lead.Email,
		Detail:     out.Detail,
		OccurredAt: b.now().UTC(),
	}
	if err := b.journal.Record(ctx, ev); err != nil {
		log.Warn().Err(err).Str("kind", ev.Kind).Msg("journal write failed")
	}
}
