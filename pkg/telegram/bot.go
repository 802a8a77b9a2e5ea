package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/preacherbot/pkg/dialog"
	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/pkg/errors"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// HandlerFunc is a function that handles a Telegram update
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(ctx context.Context, message *tgbotapi.Message)

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{})
}

// NewWithEndpoint creates a bot talking to a custom Bot API endpoint
func NewWithEndpoint(token, endpoint string, client *http.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telegram bot")
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// Start listens for updates until ctx is cancelled. Updates are handled one
// at a time, so replies to a user are always computed in message order.
func (b *Bot) Start(ctx context.Context, commandHandlers map[string]CommandHandler, defaultHandler HandlerFunc) error {
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
			b.dispatch(ctx, update, commandHandlers, defaultHandler)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update, commandHandlers map[string]CommandHandler, defaultHandler HandlerFunc) {
	if update.Message != nil && update.Message.IsCommand() {
		command := update.Message.Command()
		if handler, ok := commandHandlers[command]; ok {
			log := b.logger.With(fmt.Sprintf("%d", update.Message.Chat.ID))
			log.Info("Handling command: %s from user %s", command, userName(update.Message.From))
			handler(ctx, update.Message)
			return
		}
	}

	if defaultHandler != nil {
		defaultHandler(ctx, update)
	}
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	return fmt.Sprintf("%d", u.ID)
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// Notify sends a plain text notification
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	if _, err := b.SendMessage(chatID, text); err != nil {
		return errors.Wrapf(err, "failed to notify chat %d", chatID)
	}
	return nil
}

// SendReply renders a dialog reply as a message with a reply keyboard and,
// when present, a document
func (b *Bot) SendReply(chatID int64, reply dialog.Reply) error {
	for _, c := range Render(chatID, reply) {
		if _, err := b.api.Send(c); err != nil {
			return errors.Wrapf(err, "failed to send reply to chat %d", chatID)
		}
	}
	return nil
}

// Render converts a reply into the Bot API requests that deliver it
func Render(chatID int64, reply dialog.Reply) []tgbotapi.Chattable {
	var markup interface{}
	switch {
	case len(reply.Options) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Options))
		for _, opt := range reply.Options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		markup = keyboard
	case reply.RemoveKeyboard:
		markup = tgbotapi.NewRemoveKeyboard(true)
	}

	if reply.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		})
		doc.Caption = reply.Text
		if markup != nil {
			doc.ReplyMarkup = markup
		}
		return []tgbotapi.Chattable{doc}
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return []tgbotapi.Chattable{msg}
}
