package payments

import (
	"github.com/aigen/stars-bot/src/catalog"
)

// PreAuthRequest is Telegram's pre-checkout query, reduced to what the
// decision needs.
type PreAuthRequest struct {
	QueryID string
	Payload string
}

// Decision is the pass/fail answer to a pre-checkout query. Reason is only
// set on rejection and is shown to the payer by Telegram.
type Decision struct {
	Approve bool
	Reason  string
}

// PreAuthGate decides pre-checkout queries. Approve unless a concrete
// validation fails: rejection here cannot express partial failure, and the
// settlement handler owns all real fulfillment risk. No side effects, no
// I/O, so the answer always beats Telegram's deadline.
type PreAuthGate struct {
	catalog *catalog.Catalog
}

func NewPreAuthGate(c *catalog.Catalog) *PreAuthGate {
	return &PreAuthGate{catalog: c}
}

func (g *PreAuthGate) Decide(req PreAuthRequest) Decision {
	planID, _, err := DecodePayload(req.Payload)
	if err != nil {
		return Decision{Reason: "This purchase can no longer be processed. Please start over."}
	}
	if _, err := g.catalog.Lookup(planID); err != nil {
		return Decision{Reason: "This plan is no longer available. Please start over."}
	}
	return Decision{Approve: true}
}
