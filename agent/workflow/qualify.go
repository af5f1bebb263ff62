// Package workflow holds the side-effecting lead workflows: qualification
// (pipeline card creation plus optional slot offering) and meeting booking.
package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

type QualificationKind string

const (
	QualificationRegisteredOnly QualificationKind = "registered_only"
	QualificationSlotsOffered   QualificationKind = "slots_offered"
	QualificationNoSlots        QualificationKind = "no_slots"
	QualificationCrmFailure     QualificationKind = "crm_failure"
)

// QualificationOutcome is a tagged result; Kind decides which fields are set.
// Collaborator failures are outcome variants, not Go errors, because the
// caller must map every variant to a distinct turn result.
type QualificationOutcome struct {
	Kind    QualificationKind
	CardRef contractx.CardRef
	Slots   []contractx.Slot
	Lead    contractx.Lead
	Detail  string
}

// Qualifier runs the lead qualification workflow over injected collaborators.
// It holds no per-request state; each Qualify call is invoked exactly once
// per recognized trigger by the orchestrator.
type Qualifier struct {
	crm       contractx.CRM
	scheduler contractx.Scheduler
	journal   contractx.Journal
	now       func() time.Time
}

func NewQualifier(crm contractx.CRM, scheduler contractx.Scheduler, journal contractx.Journal) *Qualifier {
	if journal == nil {
		journal = NoopJournal{}
	}
	return &Qualifier{
		crm:       crm,
		scheduler: scheduler,
		journal:   journal,
		now:       time.Now,
	}
}

// Qualify registers the lead and, when interest is confirmed, fetches meeting
// slots. The card is created regardless of field completeness: the model is
// trusted to have gated on completeness before emitting the trigger. The
// scheduling call is strictly sequential after the CRM call and never happens
// when the CRM call fails.
func (q *Qualifier) Qualify(ctx context.Context, trigger contractx.ActionTrigger) QualificationOutcome {
	lead := trigger.Lead

	ref, err := q.crm.CreateCard(ctx, lead)
	if err != nil {
		log.Error().Err(err).Str("email", lead.Email).Msg("crm card creation failed")
		out := QualificationOutcome{Kind: QualificationCrmFailure, Detail: err.Error()}
		q.record(ctx, lead, out)
		return out
	}
	log.Info().Str("card_id", ref.ID).Str("email", lead.Email).Msg("lead registered")

	if !lead.InterestConfirmed {
		out := QualificationOutcome{Kind: QualificationRegisteredOnly, CardRef: ref}
		q.record(ctx, lead, out)
		return out
	}

	slots, err := q.scheduler.ListSlots(ctx)
	if err != nil || len(slots) == 0 {
		if err != nil {
			log.Warn().Err(err).Str("card_id", ref.ID).Msg("slot listing failed")
		}
		out := QualificationOutcome{Kind: QualificationNoSlots, CardRef: ref}
		q.record(ctx, lead, out)
		return out
	}

	out := QualificationOutcome{
		Kind:    QualificationSlotsOffered,
		CardRef: ref,
		Slots:   slots,
		Lead:    lead,
	}
	q.record(ctx, lead, out)
	return out
}

func (q *Qualifier) record(ctx context.Context, lead contractx.Lead, out QualificationOutcome) {
	ev := contractx.LeadEvent{
		Kind:       string(out.Kind),
		CardID:     out.CardRef.ID,
		Email:      lead.Email,
		Detail:     out.Detail,
		OccurredAt: q.now().UTC(),
	}
	if err := q.journal.Record(ctx, ev); err != nil {
		// Journal trouble must never change the turn outcome.
		log.Warn().Err(err).Str("kind", ev.Kind).Msg("journal write failed")
	}
}

// NoopJournal discards events. Used when no journal backend is configured.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, contractx.LeadEvent) error {
	return nil
}
