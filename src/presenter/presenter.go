// Package presenter maps settlement outcomes and balance answers to
// user-facing Markdown. Pure formatting; every failure rendering carries the
// Telegram charge id, which is the reference support needs to finish a
// payment by hand.
package presenter

import (
	"fmt"

	"github.com/aigen/stars-bot/src/entities"
)

type Presenter struct {
	AppURL string
}

func New(appURL string) *Presenter {
	return &Presenter{AppURL: appURL}
}

// Outcome renders the terminal settlement message for the payer.
func (p *Presenter) Outcome(o entities.Outcome) string {
	switch o.Kind {
	case entities.OutcomeCredited:
		return fmt.Sprintf(
			"✅ *Payment successful!*\n\n"+
				"💰 Credited: *%d* tokens\n"+
				"⭐ Paid: *%d* Telegram Stars\n\n"+
				"🚀 You now have full access to AI Generator!\n\n"+
				"[Open the site](%s)",
			o.Tokens, o.StarsPaid, p.AppURL,
		)
	case entities.OutcomePendingRetry:
		return fmt.Sprintf(
			"✅ Payment received!\n"+
				"⚠️ Your tokens will be credited within a few minutes.\n"+
				"Transaction ID: %s",
			o.ChargeID,
		)
	default:
		return fmt.Sprintf(
			"⚠️ Payment received, but the tokens could not be credited (%s).\n"+
				"Please contact support and quote: %s",
			o.Reason, o.ChargeID,
		)
	}
}

// Fallback is the bare-bones message sent when the full outcome message
// itself fails to deliver. Plain text, no markup, charge id always included.
func (p *Presenter) Fallback(o entities.Outcome) string {
	if o.Kind == entities.OutcomeCredited {
		return fmt.Sprintf("Payment successful, %d tokens credited.", o.Tokens)
	}
	return fmt.Sprintf("Payment received. If tokens do not arrive, contact support and quote: %s", o.ChargeID)
}

// Balance renders the balance-check answer.
func (p *Presenter) Balance(b entities.Balance) string {
	return fmt.Sprintf(
		"📊 *Your balance*\n\n💰 Tokens: *%d*\n\n[Open the site](%s)",
		b.Tokens, p.AppURL,
	)
}

// Welcome is the /start text.
func (p *Presenter) Welcome() string {
	return "👋 Welcome to *AI Generator*!\n\n" +
		"🤖 ChatGPT, Claude, Gemini and more in one place.\n\n" +
		"What would you like to do?"
}

// PlanList heads the plan selection menu.
func (p *Presenter) PlanList(plans []entities.Plan) string {
	text := "💳 *Choose a plan:*\n\n" +
		"Payment is made with Telegram Stars ⭐\n" +
		"Tokens are credited instantly!\n\n"
	for _, plan := range plans {
		text += fmt.Sprintf("%s: %s - %d ⭐\n", plan.Name, plan.Description, plan.Stars)
	}
	return text
}
