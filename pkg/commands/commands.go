// Package commands maps bot commands and free text onto the dialog machine
// and the schedule.
package commands

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/preacherbot/pkg/dialog"
	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/messages"
	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/korjavin/preacherbot/pkg/telegram"
)

// Sender delivers replies to a chat
type Sender interface {
	SendReply(chatID int64, reply dialog.Reply) error
}

// Dialog is the conversation state machine
type Dialog interface {
	StartAdd(ctx context.Context, userID int64) dialog.Reply
	StartDelete(ctx context.Context, userID int64) dialog.Reply
	StartExport(ctx context.Context, userID int64) dialog.Reply
	Cancel(ctx context.Context, userID int64) dialog.Reply
	Handle(ctx context.Context, userID int64, text string) (dialog.Reply, bool)
}

// Lister provides the schedule snapshot for display
type Lister interface {
	ListAll() (schedule.Schedule, error)
}

// Texter composes the reminder text for one date
type Texter interface {
	ReminderText(ctx context.Context, date string, preachers []string, daysLeft int) string
}

// Router wires commands to their handlers
type Router struct {
	sender Sender
	dialog Dialog
	store  Lister
	texts  Texter
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger
}

// New creates a new command router. loc is the zone "today" is taken in
// when looking up the next service.
func New(sender Sender, d Dialog, store Lister, texts Texter, loc *time.Location) *Router {
	if loc == nil {
		loc = time.Local
	}
	return &Router{
		sender: sender,
		dialog: d,
		store:  store,
		texts:  texts,
		loc:    loc,
		now:    time.Now,
		logger: logger.New("commands"),
	}
}

// Commands returns the handler for every supported command
func (r *Router) Commands() map[string]telegram.CommandHandler {
	return map[string]telegram.CommandHandler{
		"start":    r.text(func() string { return messages.Welcome }),
		"help":     r.text(func() string { return messages.Help }),
		"add":      r.userDialog(r.dialog.StartAdd),
		"delete":   r.userDialog(r.dialog.StartDelete),
		"export":   r.userDialog(r.dialog.StartExport),
		"cancel":   r.userDialog(r.dialog.Cancel),
		"show":     r.show,
		"end":      r.show,
		"id":       r.identity,
		"reminder": r.reminder,
	}
}

// Default routes non-command text to the sender's active dialog, if any
func (r *Router) Default(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}
	reply, handled := r.dialog.Handle(ctx, msg.From.ID, msg.Text)
	if !handled {
		return
	}
	r.reply(msg.Chat.ID, reply)
}

func (r *Router) text(body func() string) telegram.CommandHandler {
	return func(_ context.Context, msg *tgbotapi.Message) {
		r.reply(msg.Chat.ID, dialog.Reply{Text: body()})
	}
}

func (r *Router) userDialog(start func(ctx context.Context, userID int64) dialog.Reply) telegram.CommandHandler {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		if msg.From == nil {
			return
		}
		r.reply(msg.Chat.ID, start(ctx, msg.From.ID))
	}
}

func (r *Router) show(_ context.Context, msg *tgbotapi.Message) {
	sched, err := r.store.ListAll()
	if err != nil {
		r.logger.Error("Failed to list schedule: %v", err)
		r.reply(msg.Chat.ID, dialog.Reply{Text: messages.Failure})
		return
	}
	r.reply(msg.Chat.ID, dialog.Reply{Text: messages.RenderSchedule(sched)})
}

// reminder answers with the reminder of the nearest service today or later
func (r *Router) reminder(ctx context.Context, msg *tgbotapi.Message) {
	sched, err := r.store.ListAll()
	if err != nil {
		r.logger.Error("Failed to list schedule: %v", err)
		r.reply(msg.Chat.ID, dialog.Reply{Text: messages.Failure})
		return
	}
	date, days, ok := nextService(sched, r.now().In(r.loc))
	if !ok {
		r.reply(msg.Chat.ID, dialog.Reply{Text: messages.GenericReminder})
		return
	}
	r.reply(msg.Chat.ID, dialog.Reply{Text: r.texts.ReminderText(ctx, date, sched[date], days)})
}

func nextService(sched schedule.Schedule, now time.Time) (string, int, bool) {
	for _, date := range sched.Dates() {
		days, err := schedule.DaysUntil(now, date)
		if err != nil || days < 0 {
			continue
		}
		return date, days, true
	}
	return "", 0, false
}

func (r *Router) identity(_ context.Context, msg *tgbotapi.Message) {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	r.reply(msg.Chat.ID, dialog.Reply{Text: messages.Identity(userID, msg.Chat.ID)})
}

func (r *Router) reply(chatID int64, reply dialog.Reply) {
	if err := r.sender.SendReply(chatID, reply); err != nil {
		r.logger.With(fmt.Sprintf("%d", chatID)).Error("Failed to send reply: %v", err)
	}
}
