package payments

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/aigen/stars-bot/src/catalog"
	"github.com/aigen/stars-bot/src/entities"
	"github.com/aigen/stars-bot/src/interfaces"
)

// SettlementHandler converts a completed payment into a token credit on the
// backend. Every event produces exactly one Outcome:
//
//   - Credited: the backend acknowledged the credit (fresh or replayed).
//   - Rejected: terminal. Malformed payload, unknown plan, or an explicit
//     backend rejection. Never retried; the input will not fix itself.
//   - PendingRetry: the backend could not be reached. Terminal for this
//     process; the outcome carries the Telegram charge id so the payment
//     stays visible for out-of-band reconciliation.
//
// The backend is the idempotency authority, keyed by the Telegram charge id.
// This handler only makes sure duplicate deliveries of the same charge id do
// not race each other onto the wire: concurrent duplicates collapse into a
// single in-flight credit call and share its outcome.
type SettlementHandler struct {
	catalog *catalog.Catalog
	backend interfaces.BackendAPI

	inflight singleflight.Group
}

func NewSettlementHandler(c *catalog.Catalog, backend interfaces.BackendAPI) *SettlementHandler {
	return &SettlementHandler{catalog: c, backend: backend}
}

// Handle processes one settlement event to a terminal outcome. It never
// returns an error: a paid transaction must always end in a reportable
// outcome, whatever failed along the way.
func (h *SettlementHandler) Handle(ctx context.Context, ev entities.SettlementEvent) entities.Outcome {
	planID, requesterID, err := DecodePayload(ev.Payload)
	if err != nil {
		log.Printf("settlement %s: %v", ev.TelegramChargeID, err)
		return entities.Outcome{
			Kind:      entities.OutcomeRejected,
			Reason:    entities.ReasonMalformedPayload,
			StarsPaid: ev.StarsPaid,
			ChargeID:  ev.TelegramChargeID,
		}
	}

	plan, err := h.catalog.Lookup(planID)
	if err != nil {
		log.Printf("settlement %s: %v", ev.TelegramChargeID, err)
		return entities.Outcome{
			Kind:      entities.OutcomeRejected,
			Reason:    entities.ReasonUnknownPlan,
			StarsPaid: ev.StarsPaid,
			ChargeID:  ev.TelegramChargeID,
		}
	}

	type creditOutcome struct {
		result *entities.CreditResult
		err    error
	}

	v, _, shared := h.inflight.Do(ev.TelegramChargeID, func() (interface{}, error) {
		result, err := h.backend.Credit(ctx, entities.CreditRequest{
			TelegramUserID:   requesterID,
			TelegramUsername: ev.PayerUsername,
			PlanID:           plan.ID,
			Tokens:           plan.Tokens,
			StarsPaid:        ev.StarsPaid,
			TelegramChargeID: ev.TelegramChargeID,
			ProviderChargeID: ev.ProviderChargeID,
		})
		return creditOutcome{result: result, err: err}, nil
	})
	if shared {
		log.Printf("settlement %s: duplicate delivery collapsed", ev.TelegramChargeID)
	}
	credit := v.(creditOutcome)

	switch {
	case credit.err != nil:
		// No definite answer. The credit may or may not have landed, so the
		// payer gets the charge id and a human finishes the job.
		log.Printf("settlement %s: backend unreachable: %v", ev.TelegramChargeID, credit.err)
		return entities.Outcome{
			Kind:      entities.OutcomePendingRetry,
			StarsPaid: ev.StarsPaid,
			ChargeID:  ev.TelegramChargeID,
		}
	case !credit.result.Credited:
		log.Printf("settlement %s: backend rejected: %s", ev.TelegramChargeID, credit.result.Reason)
		return entities.Outcome{
			Kind:      entities.OutcomeRejected,
			Reason:    entities.ReasonBackendRejected,
			StarsPaid: ev.StarsPaid,
			ChargeID:  ev.TelegramChargeID,
		}
	default:
		log.Printf("settlement %s: credited %d tokens to %d", ev.TelegramChargeID, plan.Tokens, requesterID)
		return entities.Outcome{
			Kind:      entities.OutcomeCredited,
			Tokens:    plan.Tokens,
			StarsPaid: ev.StarsPaid,
			ChargeID:  ev.TelegramChargeID,
		}
	}
}
