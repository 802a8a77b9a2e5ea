package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/korjavin/preacherbot/pkg/commands"
	"github.com/korjavin/preacherbot/pkg/config"
	"github.com/korjavin/preacherbot/pkg/dialog"
	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/messages"
	"github.com/korjavin/preacherbot/pkg/openai"
	"github.com/korjavin/preacherbot/pkg/reminder"
	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/korjavin/preacherbot/pkg/session"
	"github.com/korjavin/preacherbot/pkg/storage"
	"github.com/korjavin/preacherbot/pkg/telegram"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		logger.Global.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.Global
	log.Info("Starting preacher bot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	kv, err := storage.New(cfg.DataDir)
	if err != nil {
		return errors.Wrap(err, "failed to initialize storage")
	}
	defer kv.Close()

	// Start BadgerDB garbage collection
	kv.StartGCRoutine(ctx, 10*time.Minute)

	store := schedule.New(kv)

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize session store")
	}
	defer closeSessions()

	// OpenAI phrasing is optional
	var phraser messages.Phraser
	if cfg.OpenAI.APIKey != "" {
		phraser = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.APIBase, cfg.OpenAI.Model)
	}
	messageService := messages.New(phraser)

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		return errors.Wrap(err, "failed to initialize Telegram bot")
	}

	var marker reminder.Marker
	if cfg.Reminder.Dedup {
		marker = reminder.NewStoreMarker(kv)
	}
	hour, minute := cfg.ReminderClock()
	reminders := reminder.New(store, bot, messageService, marker, reminder.Options{
		ChatID:       cfg.GroupChatID,
		LeadDays:     cfg.Reminder.LeadDays,
		Hour:         hour,
		Minute:       minute,
		PollInterval: cfg.Reminder.PollInterval,
		Location:     cfg.Location(),
	})
	reminders.Start(ctx)

	machine := dialog.New(store, sessions, cfg.Preachers, cfg.Weekdays(), cfg.Location())
	router := commands.New(bot, machine, store, messageService, cfg.Location())

	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(ctx, router.Commands(), router.Default); err != nil {
		return errors.Wrap(err, "error running bot")
	}
	log.Info("Shutting down...")
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Session.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		logger.Global.Info("Using redis session store at %s", cfg.Redis.Addr)
		return session.NewRedisStore(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
	}

	mem := session.NewMemoryStore(cfg.Session.TTL)
	if cfg.Session.TTL > 0 {
		mem.StartPurgeRoutine(ctx, cfg.Session.TTL)
	}
	return mem, func() {}, nil
}
