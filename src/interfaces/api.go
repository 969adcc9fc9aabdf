package interfaces

import (
	"context"

	"github.com/aigen/stars-bot/src/entities"
)

// BackendAPI is the AI Generator backend seen from the bot. Credit must be
// safe to call repeatedly with the same Telegram charge id; the backend
// enforces idempotency on that key. A non-nil error on either method means
// the backend gave no definite answer (timeout, connection failure, or an
// unparsable response) and the call is a retry candidate.
type BackendAPI interface {
	Credit(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error)
	QueryBalance(ctx context.Context, telegramID int64) (*entities.Balance, error)
}
