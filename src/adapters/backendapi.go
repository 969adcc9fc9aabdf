package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aigen/stars-bot/src/entities"
)

// BackendProvider talks to the AI Generator backend over HTTP. Outcome
// classification is strict: only an explicit 4xx becomes a rejection.
// Timeouts, connection failures, 5xx and unparsable bodies all come back as
// errors, because none of them prove the credit did not land.
type BackendProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewBackendProvider(baseURL string, timeout time.Duration) *BackendProvider {
	return &BackendProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Credit posts a settlement to the backend webhook. Idempotent on the
// caller's side: the Telegram charge id goes through unchanged on every
// attempt and the backend deduplicates on it, so a 200 for a replayed charge
// means the same thing as a 200 for a fresh one.
func (b *BackendProvider) Credit(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode credit request: %w", err)
	}

	url := b.BaseURL + "/api/webhooks/telegram-stars"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// A 200 with a body we cannot parse gives no evidence the credit
		// landed, so it is treated like an unreachable backend.
		var ack struct {
			Received bool `json:"received"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return nil, fmt.Errorf("decode credit response: %w", err)
		}
		return &entities.CreditResult{Credited: true}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &entities.CreditResult{Reason: readErrorReason(resp)}, nil

	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// QueryBalance fetches the token balance for a Telegram account. A 404 means
// the backend has no such account; it is reported as not found, never as a
// zero balance.
func (b *BackendProvider) QueryBalance(ctx context.Context, telegramID int64) (*entities.Balance, error) {
	url := b.BaseURL + "/api/user/balance?telegram_id=" + strconv.FormatInt(telegramID, 10)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var apiResp struct {
			Tokens int `json:"tokens"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return nil, fmt.Errorf("decode balance response: %w", err)
		}
		return &entities.Balance{Tokens: apiResp.Tokens, Found: true}, nil

	case resp.StatusCode == http.StatusNotFound:
		return &entities.Balance{}, nil

	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func readErrorReason(resp *http.Response) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
