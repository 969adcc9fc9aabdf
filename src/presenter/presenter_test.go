package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aigen/stars-bot/src/entities"
)

func TestCreditedOutcome(t *testing.T) {
	p := New("https://app.example.com")

	text := p.Outcome(entities.Outcome{
		Kind:      entities.OutcomeCredited,
		Tokens:    50000,
		StarsPaid: 50,
		ChargeID:  "abc1",
	})

	assert.Contains(t, text, "50000")
	assert.Contains(t, text, "50")
	assert.Contains(t, text, "https://app.example.com")
}

func TestPendingRetryCarriesChargeID(t *testing.T) {
	p := New("https://app.example.com")

	text := p.Outcome(entities.Outcome{
		Kind:     entities.OutcomePendingRetry,
		ChargeID: "abc1",
	})

	assert.Contains(t, text, "abc1")
}

func TestRejectedCarriesReasonAndChargeID(t *testing.T) {
	p := New("https://app.example.com")

	text := p.Outcome(entities.Outcome{
		Kind:     entities.OutcomeRejected,
		Reason:   entities.ReasonBackendRejected,
		ChargeID: "abc1",
	})

	assert.Contains(t, text, entities.ReasonBackendRejected)
	assert.Contains(t, text, "abc1")
}

func TestFallbackCarriesChargeID(t *testing.T) {
	p := New("https://app.example.com")

	text := p.Fallback(entities.Outcome{
		Kind:     entities.OutcomePendingRetry,
		ChargeID: "abc1",
	})

	assert.Contains(t, text, "abc1")
}

func TestPlanListShowsEveryPlan(t *testing.T) {
	p := New("https://app.example.com")

	plans := []entities.Plan{
		{ID: "trial", Name: "Trial", Description: "50,000 tokens per month", Stars: 50, Tokens: 50000},
		{ID: "standard", Name: "Standard", Description: "150,000 tokens per month", Stars: 100, Tokens: 150000},
	}
	text := p.PlanList(plans)

	assert.Contains(t, text, "Trial")
	assert.Contains(t, text, "Standard")
	assert.Contains(t, text, "100")
}
