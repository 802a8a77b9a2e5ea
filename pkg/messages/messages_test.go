package messages

import (
	"context"
	"errors"
	"testing"

	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/stretchr/testify/assert"
)

type fakePhraser struct {
	msg    string
	err    error
	intent string
	data   map[string]interface{}
}

func (f *fakePhraser) GenerateChatMessage(_ context.Context, intent string, data map[string]interface{}) (string, error) {
	f.intent = intent
	f.data = data
	return f.msg, f.err
}

func TestRenderSchedule(t *testing.T) {
	assert.Equal(t, EmptySchedule, RenderSchedule(schedule.Schedule{}))

	out := RenderSchedule(schedule.Schedule{
		"07.05.2025": {"Петро"},
		"04.05.2025": {"Іван", "Андрій"},
	})
	assert.Equal(t, "📅 Розклад проповідників:\n\n04.05.2025 (Нд): Іван, Андрій\n07.05.2025 (Ср): Петро", out)
}

func TestReminderTextTemplate(t *testing.T) {
	s := New(nil)
	msg := s.ReminderText(context.Background(), "04.05.2025", []string{"Іван", "Петро"}, 2)
	assert.Equal(t, "⏰ Нагадування! 04.05.2025 (Нд) через 2 дн. проповідують: Іван, Петро.", msg)

	msg = s.ReminderText(context.Background(), "04.05.2025", []string{"Іван"}, 0)
	assert.Equal(t, "⏰ Нагадування! Сьогодні, 04.05.2025 (Нд), проповідують: Іван.", msg)
}

func TestReminderTextPhrased(t *testing.T) {
	p := &fakePhraser{msg: "Іван і Петро, чекаємо вас у неділю!"}
	s := New(p)

	msg := s.ReminderText(context.Background(), "04.05.2025", []string{"Іван", "Петро"}, 2)
	assert.Equal(t, p.msg, msg)
	assert.Equal(t, "service_reminder", p.intent)
	assert.Equal(t, "04.05.2025 (Нд)", p.data["date"])
}

func TestReminderTextFallsBack(t *testing.T) {
	for name, p := range map[string]*fakePhraser{
		"error":        {err: errors.New("down")},
		"missing name": {msg: "Чекаємо Івана!"},
	} {
		t.Run(name, func(t *testing.T) {
			msg := New(p).ReminderText(context.Background(), "04.05.2025", []string{"Іван", "Петро"}, 2)
			assert.Contains(t, msg, "Нагадування")
			assert.Contains(t, msg, "Іван, Петро")
		})
	}
}
