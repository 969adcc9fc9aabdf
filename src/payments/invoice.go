package payments

import (
	"github.com/aigen/stars-bot/src/catalog"
	"github.com/aigen/stars-bot/src/entities"
)

// InvoiceBuilder turns a plan selection into an invoice request. Pure
// construction; actually sending the invoice is the Telegram boundary's job.
type InvoiceBuilder struct {
	catalog *catalog.Catalog
}

func NewInvoiceBuilder(c *catalog.Catalog) *InvoiceBuilder {
	return &InvoiceBuilder{catalog: c}
}

// Build resolves the plan and encodes the correlation payload. Fails on an
// unknown plan id or an unusable requester id; never invents either.
func (b *InvoiceBuilder) Build(planID string, requesterID int64) (entities.InvoiceRequest, error) {
	plan, err := b.catalog.Lookup(planID)
	if err != nil {
		return entities.InvoiceRequest{}, err
	}

	payload, err := EncodePayload(plan.ID, requesterID)
	if err != nil {
		return entities.InvoiceRequest{}, err
	}

	return entities.InvoiceRequest{
		PlanID:      plan.ID,
		RequesterID: requesterID,
		Title:       plan.Name,
		Description: plan.Description,
		Payload:     payload,
		Stars:       plan.Stars,
	}, nil
}
