package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/escrow-express/deal-bot/internal/engine"
	"github.com/escrow-express/deal-bot/internal/models"
)

const dealTypeButton = "💸 INR Deal"

var prompts = map[engine.Step]string{
	engine.StepTitle:     "📌 Deal Of:",
	engine.StepAmount:    "💰 Total Amount:",
	engine.StepTimeFrame: "⏳ Time to complete deal:",
	engine.StepBank:      "🏦 Payment from which bank (Compulsory):",
	engine.StepSeller:    "🧾 Seller Username:",
	engine.StepBuyer:     "🧾 Buyer Username:",
}

// StatsSource reads deal outcome counts from the archive.
type StatsSource interface {
	OutcomeCounts() (map[models.DealStatus]int64, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	engine  *engine.Engine
	gate    *engine.Gate
	intake  *engine.Intake
	stats   StatsSource
	ownerID int64
	logger  zerolog.Logger
}

func New(api *tgbotapi.BotAPI, eng *engine.Engine, gate *engine.Gate, intake *engine.Intake, stats StatsSource, ownerID int64, logger zerolog.Logger) *Bot {
	return &Bot{
		api:     api,
		engine:  eng,
		gate:    gate,
		intake:  intake,
		stats:   stats,
		ownerID: ownerID,
		logger:  logger.With().Str("service", "bot").Logger(),
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update)
		}
	}
}

// dispatch is the single entry point for every inbound event. Private
// messages from unverified users are diverted to the admission gate;
// group traffic and button presses always pass through.
func (b *Bot) dispatch(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	msg := update.Message
	if msg.Chat.IsPrivate() && !b.gate.Verified(msg.From.ID) {
		b.admit(update)
		return
	}

	b.route(msg)
}

// admit runs the captcha exchange. On a fresh contact the triggering
// update is parked inside the gate and replayed after verification, so
// the user's original action is not lost.
func (b *Bot) admit(update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID

	if !b.gate.Outstanding(userID) {
		code := b.gate.Begin(userID, update)
		b.send(msg.Chat.ID, fmt.Sprintf("🔐 Captcha Verification: Type *%s* to continue", code))
		return
	}

	result, original, code := b.gate.Submit(userID, msg.Text)
	switch result {
	case engine.GatePass:
		b.send(msg.Chat.ID, "✅ Captcha verified!")
		if orig, ok := original.(tgbotapi.Update); ok && orig.Message != nil {
			b.route(orig.Message)
		}
	case engine.GateReminted:
		b.send(msg.Chat.ID, fmt.Sprintf("❌ Too many wrong attempts. New captcha: Type *%s* to continue", code))
	default:
		b.send(msg.Chat.ID, "❌ Incorrect captcha. Try again later.")
	}
}

func (b *Bot) route(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	if msg.Text == dealTypeButton {
		b.startIntake(msg)
		return
	}
	b.advanceIntake(msg)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.handleStart(msg)

	case "help":
		b.send(msg.Chat.ID, "Commands:\n"+
			"/mydeals - See your deals\n"+
			"/release <deal_id> - Vote to release payment\n"+
			"/refund <deal_id> - Vote to refund payment\n\n"+
			"Admin:\n"+
			"/claim <deal_id> - Claim a deal\n"+
			"/received <deal_id> - Mark payment received\n"+
			"/stats - Deal outcome counts")

	case "claim":
		b.handleClaim(msg, userID)

	case "received":
		b.handleReceived(msg, userID)

	case "release":
		b.handleRelease(msg)

	case "refund":
		b.handleRefund(msg)

	case "mydeals":
		b.handleMyDeals(msg)

	case "stats":
		b.handleStats(msg, userID)

	default:
		b.send(msg.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "👋 Welcome to Escrow Express!\nSelect deal type:")
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(dealTypeButton)),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	reply.ReplyMarkup = kb
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Msg("failed to send welcome")
	}
}

func (b *Bot) startIntake(msg *tgbotapi.Message) {
	step := b.intake.Start(msg.From.ID)
	b.send(msg.Chat.ID, "📝 Please fill the following:")
	b.send(msg.Chat.ID, prompts[step])
}

func (b *Bot) advanceIntake(msg *tgbotapi.Message) {
	next, draft, ok := b.intake.Advance(msg.From.ID, msg.Text)
	if !ok {
		return
	}
	if draft != nil {
		b.engine.CreateDeal(*draft)
		b.send(msg.Chat.ID, "✅ Deal sent for confirmation in group.")
		return
	}
	b.send(msg.Chat.ID, prompts[next])
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	action, roleStr, dealID, err := parseCallback(cq.Data)
	if err != nil || action != "confirm" {
		b.answer(cq.ID, "❌ Unknown action.")
		return
	}

	role, err := models.ParseRole(roleStr)
	if err != nil {
		b.answer(cq.ID, "❌ Unknown action.")
		return
	}

	err = b.engine.Confirm(dealID, role, cq.From.UserName)
	switch {
	case errors.Is(err, models.ErrDealNotFound):
		b.answer(cq.ID, "❌ Deal not found.")
	case errors.Is(err, models.ErrUnauthorized):
		b.answer(cq.ID, "⛔ Only assigned party can confirm.")
	case errors.Is(err, models.ErrInvalidState):
		b.answer(cq.ID, "❌ Deal not open for confirmation.")
	case err != nil:
		b.answer(cq.ID, "❌ Something went wrong.")
	default:
		b.answer(cq.ID, "✅ Confirmation received.")
	}
}

func (b *Bot) handleClaim(msg *tgbotapi.Message, userID int64) {
	if !b.isAdmin(userID) {
		b.send(msg.Chat.ID, "⛔ Only the escrow admin can claim deals.")
		return
	}

	dealID := strings.TrimSpace(msg.CommandArguments())
	if dealID == "" {
		b.send(msg.Chat.ID, "Usage: /claim <deal_id>\nExample: /claim DEAL1")
		return
	}

	if err := b.engine.Claim(dealID, userID); err != nil {
		b.send(msg.Chat.ID, "❌ No such deal")
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("✅ You have claimed %s", dealID))
}

func (b *Bot) handleReceived(msg *tgbotapi.Message, userID int64) {
	dealID := strings.TrimSpace(msg.CommandArguments())
	if dealID == "" {
		b.send(msg.Chat.ID, "Usage: /received <deal_id>\nExample: /received DEAL1")
		return
	}

	err := b.engine.MarkPaymentReceived(dealID, userID)
	switch {
	case errors.Is(err, models.ErrDealNotFound):
		b.send(msg.Chat.ID, "❌ No such deal")
	case errors.Is(err, models.ErrUnauthorized):
		b.send(msg.Chat.ID, "⛔ Only the claiming admin can mark payment received")
	case errors.Is(err, models.ErrInvalidState):
		b.send(msg.Chat.ID, fmt.Sprintf("❌ Deal %s is not awaiting payment", dealID))
	case err != nil:
		b.send(msg.Chat.ID, "❌ Something went wrong.")
	default:
		b.send(msg.Chat.ID, fmt.Sprintf("💰 Payment received recorded for %s", dealID))
	}
}

func (b *Bot) handleRelease(msg *tgbotapi.Message) {
	dealID := strings.TrimSpace(msg.CommandArguments())
	if dealID == "" {
		b.send(msg.Chat.ID, "Usage: /release <deal_id>\nExample: /release DEAL1")
		return
	}

	done, err := b.engine.VoteRelease(dealID, msg.From.UserName)
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		b.send(msg.Chat.ID, "⛔ Only buyer/seller can vote to release")
	case err != nil:
		b.send(msg.Chat.ID, "❌ Deal not eligible for release")
	case done:
		b.send(msg.Chat.ID, "✅ Both parties confirmed. Releasing payment.")
	default:
		b.send(msg.Chat.ID, "⏳ Waiting for the other party to confirm release")
	}
}

func (b *Bot) handleRefund(msg *tgbotapi.Message) {
	dealID := strings.TrimSpace(msg.CommandArguments())
	if dealID == "" {
		b.send(msg.Chat.ID, "Usage: /refund <deal_id>\nExample: /refund DEAL1")
		return
	}

	done, err := b.engine.VoteRefund(dealID, msg.From.UserName)
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		b.send(msg.Chat.ID, "⛔ Only buyer/seller can vote to refund")
	case err != nil:
		b.send(msg.Chat.ID, "❌ Deal not eligible for refund")
	case done:
		b.send(msg.Chat.ID, "✅ Both parties agreed. Refunding payment.")
	default:
		b.send(msg.Chat.ID, "⏳ Waiting for other party to confirm refund")
	}
}

func (b *Bot) handleMyDeals(msg *tgbotapi.Message) {
	deals := b.engine.DealsFor(msg.From.UserName)
	if len(deals) == 0 {
		b.send(msg.Chat.ID, "❌ No deals found.")
		return
	}

	var sb strings.Builder
	for _, d := range deals {
		sb.WriteString(fmt.Sprintf("🆔 %s | 💰 ₹%s | 📌 %s\n", d.ID, d.Amount, d.Status))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStats(msg *tgbotapi.Message, userID int64) {
	if !b.isAdmin(userID) {
		b.send(msg.Chat.ID, "⛔ Only the escrow admin can view stats.")
		return
	}
	if b.stats == nil {
		b.send(msg.Chat.ID, "📊 Archive not configured.")
		return
	}

	counts, err := b.stats.OutcomeCounts()
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error reading stats.")
		b.logger.Error().Err(err).Msg("failed to read outcome counts")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Deal outcomes\n")
	for _, status := range []models.DealStatus{models.StatusReleased, models.StatusRefunded, models.StatusExpired} {
		sb.WriteString(fmt.Sprintf("%s: %d\n", status, counts[status]))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Error().Err(err).Msg("failed to answer callback")
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.ownerID
}

func parseCallback(data string) (action, role, dealID string, err error) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", models.ErrInvalidInput
	}
	return parts[0], parts[1], parts[2], nil
}
