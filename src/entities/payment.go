package entities

// Plan is one purchasable top-up option. The catalog validates every entry at
// startup, so downstream code can trust Stars and Tokens to be positive.
type Plan struct {
	// 0x7C is "|", the correlation payload separator.
	ID          string `validate:"required,excludesall=0x7C"`
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Stars       int    `validate:"gt=0"`
	Tokens      int    `validate:"gt=0"`
}

// InvoiceRequest is everything the Telegram boundary needs to send an invoice.
// Payload is the correlation payload that comes back verbatim on settlement.
type InvoiceRequest struct {
	PlanID      string
	RequesterID int64
	Title       string
	Description string
	Payload     string
	Stars       int
}

// SettlementEvent is a completed payment as delivered by Telegram.
// TelegramChargeID is the idempotency key: the backend must never credit the
// same charge id twice, and every delayed-credit message carries it so a
// human can reconcile the payment by hand.
type SettlementEvent struct {
	Payload          string
	StarsPaid        int
	TelegramChargeID string
	ProviderChargeID string
	PayerID          int64
	PayerUsername    string
}

// CreditRequest is the settlement call to the backend webhook.
type CreditRequest struct {
	TelegramUserID   int64  `json:"telegram_user_id"`
	TelegramUsername string `json:"telegram_username,omitempty"`
	PlanID           string `json:"plan_id"`
	Tokens           int    `json:"tokens"`
	StarsPaid        int    `json:"stars_paid"`
	TelegramChargeID string `json:"telegram_payment_charge_id"`
	ProviderChargeID string `json:"provider_payment_charge_id"`
}

// CreditResult is a definite answer from the backend. Transport failures are
// returned as errors by the client instead, so a caller can never mistake
// "backend said no" for "backend never answered".
type CreditResult struct {
	Credited bool
	Reason   string
}

// Balance is the backend's answer to a balance query. Found is false when the
// backend knows of no such account; an unreachable backend is an error, never
// a zero balance.
type Balance struct {
	Tokens int
	Found  bool
}

type OutcomeKind int

const (
	OutcomeCredited OutcomeKind = iota
	OutcomeRejected
	OutcomePendingRetry
)

// Reasons for OutcomeRejected.
const (
	ReasonMalformedPayload = "malformed payload"
	ReasonUnknownPlan      = "unknown plan"
	ReasonBackendRejected  = "backend rejected"
)

// Outcome is the terminal result of handling one settlement event. Exactly
// one Outcome is produced per event, whatever went wrong along the way.
type Outcome struct {
	Kind      OutcomeKind
	Tokens    int
	StarsPaid int
	Reason    string
	ChargeID  string
}
