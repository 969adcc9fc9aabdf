package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigen/stars-bot/src/entities"
)

func TestDefaultPlans(t *testing.T) {
	c, err := New(DefaultPlans()...)
	require.NoError(t, err)

	trial, err := c.Lookup("trial")
	require.NoError(t, err)
	assert.Equal(t, 50, trial.Stars)
	assert.Equal(t, 50000, trial.Tokens)

	ids := make([]string, 0)
	for _, p := range c.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"trial", "standard", "optimal", "extended"}, ids)
}

func TestLookupUnknownPlan(t *testing.T) {
	c, err := New(DefaultPlans()...)
	require.NoError(t, err)

	_, err = c.Lookup("unlimited")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestNewRejectsInvalidPlans(t *testing.T) {
	valid := entities.Plan{ID: "a", Name: "A", Description: "d", Stars: 1, Tokens: 1}

	tests := []struct {
		name  string
		plans []entities.Plan
	}{
		{"no plans", nil},
		{"empty id", []entities.Plan{{Name: "A", Description: "d", Stars: 1, Tokens: 1}}},
		{"separator in id", []entities.Plan{{ID: "a|b", Name: "A", Description: "d", Stars: 1, Tokens: 1}}},
		{"zero stars", []entities.Plan{{ID: "a", Name: "A", Description: "d", Stars: 0, Tokens: 1}}},
		{"negative tokens", []entities.Plan{{ID: "a", Name: "A", Description: "d", Stars: 1, Tokens: -1}}},
		{"duplicate id", []entities.Plan{valid, valid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.plans...)
			assert.Error(t, err)
		})
	}
}
