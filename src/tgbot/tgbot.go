// Package tgbot wraps the Telegram Bot API for the payment flows this bot
// needs: messages, Stars invoices, pre-checkout answers and callback-query
// answers.
package tgbot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/aigen/stars-bot/src/entities"
	"github.com/aigen/stars-bot/src/payments"
)

// Telegram Stars invoices use the XTR currency and no provider token.
const starsCurrency = "XTR"

type Bot struct {
	Username string

	api *tgbotapi.BotAPI
	// Paces ordinary sends under Telegram's ~30 msg/s flood limit.
	// Pre-checkout and callback answers bypass it: they race upstream
	// deadlines and are not counted like messages.
	limiter *rate.Limiter
}

func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		Username: api.Self.UserName,
		api:      api,
		limiter:  rate.NewLimiter(rate.Every(time.Second/25), 5),
	}, nil
}

func (b *Bot) GetUpdatesChan() tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	return b.api.GetUpdatesChan(cfg)
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// Send delivers a Markdown message, optionally with an inline keyboard.
func (b *Bot) Send(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	_, err := b.api.Send(msg)
	return err
}

// SendPlain delivers a message without parse mode or markup. Used as the
// fallback path, where Markdown parse errors must not lose the message.
func (b *Bot) SendPlain(ctx context.Context, chatID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// EditText rewrites a previously sent menu message in place.
func (b *Bot) EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}
	_, err := b.api.Send(edit)
	return err
}

// SendInvoice transmits a Stars invoice built from an invoice request.
func (b *Bot) SendInvoice(ctx context.Context, chatID int64, inv entities.InvoiceRequest) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	cfg := tgbotapi.NewInvoice(
		chatID,
		inv.Title,
		inv.Description,
		inv.Payload,
		"", // no provider token for Telegram Stars
		"plan_"+inv.PlanID,
		starsCurrency,
		[]tgbotapi.LabeledPrice{{Label: inv.Title, Amount: inv.Stars}},
	)
	_, err := b.api.Request(cfg)
	return err
}

// AnswerPreCheckout sends the pre-authorization decision. Must be sent
// exactly once per query; Telegram aborts the purchase if it arrives late.
func (b *Bot) AnswerPreCheckout(queryID string, d payments.Decision) error {
	_, err := b.api.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 d.Approve,
		ErrorMessage:       d.Reason,
	})
	return err
}

// AnswerCallback acknowledges a callback query, optionally as an alert popup.
func (b *Bot) AnswerCallback(queryID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(queryID, text)
	cb.ShowAlert = alert
	_, err := b.api.Request(cb)
	return err
}
