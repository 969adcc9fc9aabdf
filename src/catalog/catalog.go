package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aigen/stars-bot/src/entities"
)

// ErrUnknownPlan is returned when a plan id does not exist in the catalog.
// Callers must treat it as a terminal input error, never fall back to a
// default plan.
var ErrUnknownPlan = errors.New("unknown plan")

// Catalog is the fixed, ordered set of purchasable plans. Built once at
// startup and never mutated, so it is safe for concurrent lookups.
type Catalog struct {
	plans []entities.Plan
	byID  map[string]entities.Plan
}

// New builds a catalog from the given plans, validating every entry and
// rejecting duplicate ids.
func New(plans ...entities.Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.New("catalog: no plans configured")
	}

	validate := validator.New()
	byID := make(map[string]entities.Plan, len(plans))
	for _, p := range plans {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("catalog: invalid plan %q: %w", p.ID, err)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate plan id %q", p.ID)
		}
		byID[p.ID] = p
	}

	return &Catalog{plans: append([]entities.Plan(nil), plans...), byID: byID}, nil
}

// Lookup resolves a plan id. Unknown ids return ErrUnknownPlan.
func (c *Catalog) Lookup(id string) (entities.Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return entities.Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// All returns the plans in catalog (menu) order.
func (c *Catalog) All() []entities.Plan {
	return append([]entities.Plan(nil), c.plans...)
}

// DefaultPlans is the production plan table. Prices are Telegram Stars,
// grants are tokens on the AI Generator backend.
func DefaultPlans() []entities.Plan {
	return []entities.Plan{
		{ID: "trial", Name: "🎁 Trial", Description: "50,000 tokens per month", Stars: 50, Tokens: 50000},
		{ID: "standard", Name: "⭐ Standard", Description: "150,000 tokens per month", Stars: 100, Tokens: 150000},
		{ID: "optimal", Name: "🌟 Optimal", Description: "500,000 tokens per month", Stars: 250, Tokens: 500000},
		{ID: "extended", Name: "💫 Extended", Description: "1,500,000 tokens per month", Stars: 500, Tokens: 1500000},
	}
}
