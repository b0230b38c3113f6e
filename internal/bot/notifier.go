package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/escrow-express/deal-bot/internal/engine"
)

// Notifier delivers engine notifications over Telegram. Delivery
// failures are logged and swallowed; the engine has already committed
// state by the time these run.
type Notifier struct {
	api          *tgbotapi.BotAPI
	groupID      int64
	logChannelID int64
	logger       zerolog.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, groupID, logChannelID int64, logger zerolog.Logger) *Notifier {
	return &Notifier{
		api:          api,
		groupID:      groupID,
		logChannelID: logChannelID,
		logger:       logger.With().Str("service", "notifier").Logger(),
	}
}

func (n *Notifier) SendGroup(text string) {
	n.deliver(tgbotapi.NewMessage(n.groupID, text))
}

func (n *Notifier) SendGroupKeyboard(text string, buttons []engine.Button) {
	msg := tgbotapi.NewMessage(n.groupID, text)
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		data := b.Action + "_" + string(b.Role) + "_" + b.DealID
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, data))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	n.deliver(msg)
}

func (n *Notifier) SendLog(text string) {
	n.deliver(tgbotapi.NewMessage(n.logChannelID, text))
}

func (n *Notifier) SendHandle(handle, text string) {
	n.deliver(tgbotapi.NewMessageToChannel("@"+handle, text))
}

func (n *Notifier) SendUser(userID int64, text string) {
	n.deliver(tgbotapi.NewMessage(userID, text))
}

func (n *Notifier) deliver(msg tgbotapi.MessageConfig) {
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("failed to deliver notification")
	}
}
