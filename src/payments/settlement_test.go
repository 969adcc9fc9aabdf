package payments

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigen/stars-bot/src/entities"
)

type fakeBackend struct {
	creditFn func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error)
	calls    int32
}

func (f *fakeBackend) Credit(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.creditFn(ctx, req)
}

func (f *fakeBackend) QueryBalance(ctx context.Context, telegramID int64) (*entities.Balance, error) {
	return nil, errors.New("not implemented")
}

func trialEvent() entities.SettlementEvent {
	return entities.SettlementEvent{
		Payload:          "trial|12345",
		StarsPaid:        50,
		TelegramChargeID: "abc1",
		PayerID:          12345,
		PayerUsername:    "payer",
	}
}

func TestSettlementCredited(t *testing.T) {
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			assert.Equal(t, int64(12345), req.TelegramUserID)
			assert.Equal(t, "trial", req.PlanID)
			assert.Equal(t, 50000, req.Tokens)
			assert.Equal(t, 50, req.StarsPaid)
			assert.Equal(t, "abc1", req.TelegramChargeID)
			return &entities.CreditResult{Credited: true}, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	outcome := h.Handle(context.Background(), trialEvent())

	assert.Equal(t, entities.OutcomeCredited, outcome.Kind)
	assert.Equal(t, 50000, outcome.Tokens)
	assert.Equal(t, 50, outcome.StarsPaid)
	assert.Equal(t, "abc1", outcome.ChargeID)
}

func TestSettlementRepeatAckIsIdentical(t *testing.T) {
	// The backend answers 200 for a replayed charge id; the second outcome
	// must look exactly like the first.
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			return &entities.CreditResult{Credited: true}, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	first := h.Handle(context.Background(), trialEvent())
	second := h.Handle(context.Background(), trialEvent())

	assert.Equal(t, first, second)
	assert.Equal(t, entities.OutcomeCredited, second.Kind)
}

func TestSettlementBackendRejected(t *testing.T) {
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			return &entities.CreditResult{Reason: "unknown account"}, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	outcome := h.Handle(context.Background(), trialEvent())

	assert.Equal(t, entities.OutcomeRejected, outcome.Kind)
	assert.Equal(t, entities.ReasonBackendRejected, outcome.Reason)
	assert.Equal(t, "abc1", outcome.ChargeID)
}

func TestSettlementBackendUnreachable(t *testing.T) {
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	outcome := h.Handle(context.Background(), trialEvent())

	assert.Equal(t, entities.OutcomePendingRetry, outcome.Kind)
	assert.Equal(t, "abc1", outcome.ChargeID)
}

func TestSettlementMalformedPayload(t *testing.T) {
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			t.Fatal("backend must not be called for a malformed payload")
			return nil, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	ev := trialEvent()
	ev.Payload = "garbage"
	outcome := h.Handle(context.Background(), ev)

	assert.Equal(t, entities.OutcomeRejected, outcome.Kind)
	assert.Equal(t, entities.ReasonMalformedPayload, outcome.Reason)
	assert.Zero(t, backend.calls)
}

func TestSettlementUnknownPlan(t *testing.T) {
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			t.Fatal("backend must not be called for an unknown plan")
			return nil, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	ev := trialEvent()
	ev.Payload = "unknownplan|12345"
	ev.StarsPaid = 9999
	outcome := h.Handle(context.Background(), ev)

	assert.Equal(t, entities.OutcomeRejected, outcome.Kind)
	assert.Equal(t, entities.ReasonUnknownPlan, outcome.Reason)
	assert.Zero(t, backend.calls)
}

func TestSettlementCollapsesConcurrentDuplicates(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		creditFn: func(ctx context.Context, req entities.CreditRequest) (*entities.CreditResult, error) {
			<-release
			return &entities.CreditResult{Credited: true}, nil
		},
	}
	h := NewSettlementHandler(newTestCatalog(t), backend)

	var wg sync.WaitGroup
	outcomes := make([]entities.Outcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = h.Handle(context.Background(), trialEvent())
		}(i)
	}

	// Give both handlers time to reach the crediting phase, then let the
	// single in-flight call finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&backend.calls))
	for _, outcome := range outcomes {
		assert.Equal(t, entities.OutcomeCredited, outcome.Kind)
		assert.Equal(t, 50000, outcome.Tokens)
	}
}
