package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/pkg/errors"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken    string `env:"BOT_TOKEN,required"`
	GroupChatID int64  `env:"GROUP_CHAT_ID,required"`

	// Roster of preacher display names
	Preachers []string `env:"PREACHERS,required" envSeparator:","`

	DataDir         string   `env:"DATA_DIR" envDefault:"./data"`
	Timezone        string   `env:"TIMEZONE" envDefault:"Europe/Kyiv"`
	ServiceWeekdays []string `env:"SERVICE_WEEKDAYS" envDefault:"wednesday,sunday" envSeparator:","`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`

	Reminder struct {
		Time         string        `env:"TIME" envDefault:"09:00"`
		LeadDays     int           `env:"LEAD_DAYS" envDefault:"2"`
		PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"0s"`
		Dedup        bool          `env:"DEDUP" envDefault:"false"`
	} `envPrefix:"REMINDER_"`

	Session struct {
		Backend string        `env:"BACKEND" envDefault:"memory"`
		TTL     time.Duration `env:"TTL" envDefault:"30m"`
	} `envPrefix:"SESSION_"`

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
	} `envPrefix:"REDIS_"`

	// OpenAI is optional; without a key reminders use the fixed template
	OpenAI struct {
		APIKey  string `env:"API_KEY"`
		APIBase string `env:"API_BASE" envDefault:"https://api.openai.com/v1"`
		Model   string `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	} `envPrefix:"OPENAI_"`

	location       *time.Location
	weekdays       [2]time.Weekday
	reminderHour   int
	reminderMinute int
}

// Location returns the time zone all calendar dates are evaluated in
func (c *Config) Location() *time.Location { return c.location }

// Weekdays returns the two weekdays offered by the add dialog
func (c *Config) Weekdays() [2]time.Weekday { return c.weekdays }

// ReminderClock returns the hour and minute of the daily reminder pass
func (c *Config) ReminderClock() (int, int) { return c.reminderHour, c.reminderMinute }

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Global.Warn("Error loading .env file: %v", err)
	}

	cfg, err := parse(env.Options{})
	if err != nil {
		return nil, err
	}

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	logCfg.BotToken = redact(logCfg.BotToken)
	logCfg.OpenAI.APIKey = redact(logCfg.OpenAI.APIKey)
	logCfg.Redis.Password = redact(logCfg.Redis.Password)
	logger.Global.Info("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	roster := make([]string, 0, len(c.Preachers))
	for _, p := range c.Preachers {
		if p = strings.TrimSpace(p); p != "" {
			roster = append(roster, p)
		}
	}
	if len(roster) == 0 {
		return errors.New("PREACHERS must list at least one name")
	}
	c.Preachers = roster

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return errors.Wrapf(err, "invalid TIMEZONE %q", c.Timezone)
	}
	c.location = loc

	if len(c.ServiceWeekdays) != 2 {
		return fmt.Errorf("SERVICE_WEEKDAYS must name exactly two weekdays, got %d", len(c.ServiceWeekdays))
	}
	for i, name := range c.ServiceWeekdays {
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		c.weekdays[i] = wd
	}
	if c.weekdays[0] == c.weekdays[1] {
		return errors.New("SERVICE_WEEKDAYS must name two distinct weekdays")
	}

	at, err := time.Parse("15:04", strings.TrimSpace(c.Reminder.Time))
	if err != nil {
		return errors.Wrapf(err, "invalid REMINDER_TIME %q, expected HH:MM", c.Reminder.Time)
	}
	c.reminderHour, c.reminderMinute = at.Hour(), at.Minute()

	if c.Reminder.LeadDays < 0 {
		return errors.New("REMINDER_LEAD_DAYS must not be negative")
	}
	if c.Reminder.PollInterval < 0 {
		return errors.New("REMINDER_POLL_INTERVAL must not be negative")
	}

	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.Session.Backend)
	}
	return nil
}

// ParseWeekday accepts full English weekday names or their three-letter prefixes
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

func redact(s string) string {
	if len(s) > 8 {
		return s[:8] + "...REDACTED..."
	}
	if s != "" {
		return "REDACTED"
	}
	return s
}
