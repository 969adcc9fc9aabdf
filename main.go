package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aigen/stars-bot/src/adapters"
	"github.com/aigen/stars-bot/src/catalog"
	"github.com/aigen/stars-bot/src/config"
	"github.com/aigen/stars-bot/src/entities"
	"github.com/aigen/stars-bot/src/payments"
	"github.com/aigen/stars-bot/src/presenter"
	"github.com/aigen/stars-bot/src/tgbot"
)

// app carries every dependency a handler needs. Handlers receive it
// explicitly; there is no package-level bot or dispatcher state.
type app struct {
	catalog    *catalog.Catalog
	invoices   *payments.InvoiceBuilder
	gate       *payments.PreAuthGate
	settlement *payments.SettlementHandler
	backend    *adapters.BackendProvider
	present    *presenter.Presenter
	bot        *tgbot.Bot

	backendTimeout time.Duration
}

func main() {
	envConfig, err := config.LoadEnvConfig(".env")
	if err != nil {
		log.Fatalf("Couldn't load .env config: %v", err)
	}
	if err := envConfig.ValidateWithDefaults(); err != nil {
		log.Fatalf("Invalid .env config: %v", err)
	}

	plans, err := catalog.New(catalog.DefaultPlans()...)
	if err != nil {
		log.Fatalf("Couldn't build plan catalog: %v", err)
	}

	backendTimeout := time.Duration(envConfig.BackendTimeoutSeconds) * time.Second
	backend := adapters.NewBackendProvider(envConfig.AppURL, backendTimeout)

	bot, err := tgbot.New(envConfig.TelegramToken)
	if err != nil {
		log.Fatalf("Couldn't start Telegram bot: %v", err)
	}

	a := &app{
		catalog:        plans,
		invoices:       payments.NewInvoiceBuilder(plans),
		gate:           payments.NewPreAuthGate(plans),
		settlement:     payments.NewSettlementHandler(plans, backend),
		backend:        backend,
		present:        presenter.New(envConfig.AppURL),
		bot:            bot,
		backendTimeout: backendTimeout,
	}

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		bot.Stop()
	}()

	log.Printf("Started Telegram bot! Message @%s to start.", bot.Username)

	// Each update is handled on its own goroutine: settlements block on the
	// backend for seconds, and a pre-checkout answer must never wait behind
	// another user's payment.
	var wg sync.WaitGroup
	for update := range bot.GetUpdatesChan() {
		wg.Add(1)
		go func(update tgbotapi.Update) {
			defer wg.Done()
			a.handleUpdate(update)
		}(update)
	}
	wg.Wait()
}

func (a *app) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		a.handlePreCheckout(update.PreCheckoutQuery)
	case update.CallbackQuery != nil:
		a.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		a.handleSettlement(update.Message)
	case update.Message != nil:
		a.handleCommand(update.Message)
	}
}

func (a *app) handleCommand(message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	ctx := context.Background()
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		if err := a.bot.Send(ctx, chatID, a.present.Welcome(), a.startKeyboard()); err != nil {
			log.Printf("Error sending welcome: %v", err)
		}
	case "plans":
		if err := a.bot.Send(ctx, chatID, a.present.PlanList(a.catalog.All()), a.planKeyboard()); err != nil {
			log.Printf("Error sending plan list: %v", err)
		}
	case "balance":
		a.sendBalance(ctx, chatID, message.From.ID)
	case "help":
		if err := a.bot.Send(ctx, chatID, "Use /plans to buy tokens and /balance to check your balance.", nil); err != nil {
			log.Printf("Error sending help: %v", err)
		}
	default:
		if err := a.bot.Send(ctx, chatID, "Unknown command. Send /help to see available commands.", nil); err != nil {
			log.Printf("Error sending message: %v", err)
		}
	}
}

func (a *app) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		a.ackCallback(cb.ID, "", false)
		return
	}

	ctx := context.Background()
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	switch {
	case cb.Data == "buy_tokens":
		if err := a.bot.EditText(ctx, chatID, messageID, a.present.PlanList(a.catalog.All()), a.planKeyboard()); err != nil {
			log.Printf("Error showing plans: %v", err)
		}
		a.ackCallback(cb.ID, "", false)

	case cb.Data == "check_balance":
		a.handleBalanceCallback(ctx, cb)

	case cb.Data == "back_to_start":
		if err := a.bot.EditText(ctx, chatID, messageID, a.present.Welcome(), a.startKeyboard()); err != nil {
			log.Printf("Error showing start menu: %v", err)
		}
		a.ackCallback(cb.ID, "", false)

	case len(cb.Data) > len("plan_") && cb.Data[:len("plan_")] == "plan_":
		a.handlePlanSelection(ctx, cb, cb.Data[len("plan_"):])

	default:
		a.ackCallback(cb.ID, "", false)
	}
}

func (a *app) handlePlanSelection(ctx context.Context, cb *tgbotapi.CallbackQuery, planID string) {
	inv, err := a.invoices.Build(planID, cb.From.ID)
	if err != nil {
		log.Printf("Invoice for plan %q rejected: %v", planID, err)
		a.ackCallback(cb.ID, "Plan not found", true)
		return
	}

	if err := a.bot.SendInvoice(ctx, cb.From.ID, inv); err != nil {
		log.Printf("Error sending invoice: %v", err)
		a.ackCallback(cb.ID, "Couldn't create the invoice, please try again.", true)
		return
	}
	a.ackCallback(cb.ID, "", false)
}

func (a *app) handlePreCheckout(query *tgbotapi.PreCheckoutQuery) {
	decision := a.gate.Decide(payments.PreAuthRequest{
		QueryID: query.ID,
		Payload: query.InvoicePayload,
	})
	if !decision.Approve {
		log.Printf("Pre-checkout %s rejected: %s", query.ID, decision.Reason)
	}
	// One answer per query. A failed send is a missed sale, not a safety
	// problem: Telegram aborts the purchase on its own timeout.
	if err := a.bot.AnswerPreCheckout(query.ID, decision); err != nil {
		log.Printf("Error answering pre-checkout %s: %v", query.ID, err)
	}
}

func (a *app) handleSettlement(message *tgbotapi.Message) {
	payment := message.SuccessfulPayment
	ctx, cancel := context.WithTimeout(context.Background(), a.backendTimeout+time.Second)
	defer cancel()

	// The payer identity in the event is informational; the credited account
	// comes from the correlation payload.
	ev := entities.SettlementEvent{
		Payload:          payment.InvoicePayload,
		StarsPaid:        payment.TotalAmount,
		TelegramChargeID: payment.TelegramPaymentChargeID,
		ProviderChargeID: payment.ProviderPaymentChargeID,
	}
	if message.From != nil {
		ev.PayerID = message.From.ID
		ev.PayerUsername = message.From.UserName
	}

	outcome := a.settlement.Handle(ctx, ev)

	// A paid transaction always gets an answer. If the formatted message
	// fails to send, fall back to plain text that still carries the charge
	// id.
	sendCtx := context.Background()
	if err := a.bot.Send(sendCtx, message.Chat.ID, a.present.Outcome(outcome), nil); err != nil {
		log.Printf("Error sending settlement outcome for %s: %v", outcome.ChargeID, err)
		if err := a.bot.SendPlain(sendCtx, message.Chat.ID, a.present.Fallback(outcome)); err != nil {
			log.Printf("Error sending fallback for %s: %v", outcome.ChargeID, err)
		}
	}
}

func (a *app) handleBalanceCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	balanceCtx, cancel := context.WithTimeout(ctx, a.backendTimeout+time.Second)
	defer cancel()

	balance, err := a.backend.QueryBalance(balanceCtx, cb.From.ID)
	switch {
	case err != nil:
		log.Printf("Error checking balance for %d: %v", cb.From.ID, err)
		a.ackCallback(cb.ID, "Couldn't check your balance, please try again later.", true)
	case !balance.Found:
		a.ackCallback(cb.ID, "Account not found. Please register on the site first.", true)
	default:
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💳 Top up", "buy_tokens")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_start")),
		)
		if err := a.bot.EditText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, a.present.Balance(*balance), &keyboard); err != nil {
			log.Printf("Error showing balance: %v", err)
		}
		a.ackCallback(cb.ID, "", false)
	}
}

func (a *app) sendBalance(ctx context.Context, chatID, userID int64) {
	balanceCtx, cancel := context.WithTimeout(ctx, a.backendTimeout+time.Second)
	defer cancel()

	balance, err := a.backend.QueryBalance(balanceCtx, userID)
	var text string
	switch {
	case err != nil:
		log.Printf("Error checking balance for %d: %v", userID, err)
		text = "Couldn't check your balance, please try again later."
	case !balance.Found:
		text = "Account not found. Please register on the site first."
	default:
		text = a.present.Balance(*balance)
	}
	if err := a.bot.Send(ctx, chatID, text, nil); err != nil {
		log.Printf("Error sending balance: %v", err)
	}
}

func (a *app) ackCallback(queryID, text string, alert bool) {
	if err := a.bot.AnswerCallback(queryID, text, alert); err != nil {
		log.Printf("Error answering callback %s: %v", queryID, err)
	}
}

func (a *app) startKeyboard() *tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🚀 Open the site", a.present.AppURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💳 Buy tokens", "buy_tokens")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 My balance", "check_balance")),
	)
	return &keyboard
}

func (a *app) planKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(a.catalog.All())+1)
	for _, plan := range a.catalog.All() {
		label := fmt.Sprintf("%s - %d ⭐", plan.Name, plan.Stars)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "plan_"+plan.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_start"),
	))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}
