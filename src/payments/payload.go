package payments

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The correlation payload travels through Telegram as an opaque string and is
// the only channel carrying intent from invoice creation to settlement. It is
// "<plan_id>|<requester_id>"; the backend parses the same format, so the
// encoding cannot change without coordinating both sides.
const payloadSep = "|"

// ErrMalformedPayload marks a payload that cannot be decoded. Unrecoverable:
// no retry fixes a payload that was wrong at invoice time.
var ErrMalformedPayload = errors.New("malformed invoice payload")

// EncodePayload builds the correlation payload. Deterministic: identical
// inputs always produce identical payloads, so a client-side retry of the
// same purchase is indistinguishable to Telegram.
func EncodePayload(planID string, requesterID int64) (string, error) {
	if planID == "" {
		return "", fmt.Errorf("%w: empty plan id", ErrMalformedPayload)
	}
	if strings.Contains(planID, payloadSep) {
		return "", fmt.Errorf("%w: plan id %q contains separator", ErrMalformedPayload, planID)
	}
	if requesterID <= 0 {
		return "", fmt.Errorf("%w: requester id %d", ErrMalformedPayload, requesterID)
	}
	return planID + payloadSep + strconv.FormatInt(requesterID, 10), nil
}

// DecodePayload recovers exactly the (plan id, requester id) pair that
// EncodePayload was given.
func DecodePayload(payload string) (string, int64, error) {
	parts := strings.Split(payload, payloadSep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedPayload, payload)
	}
	requesterID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || requesterID <= 0 {
		return "", 0, fmt.Errorf("%w: bad requester id in %q", ErrMalformedPayload, payload)
	}
	return parts[0], requesterID, nil
}
