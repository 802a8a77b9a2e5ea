package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/schedule"
)

// Fixed conversation texts
const (
	Welcome = "Вітаю! Я церковний бот. Я веду розклад проповідників і нагадую про наші служіння."
	Help    = `Доступні команди:
/start - Почати спілкування з ботом
/add - Призначити проповідника на дату
/delete - Видалити дату або проповідника з розкладу
/show - Показати розклад
/end - Показати розклад
/export - Завантажити розклад на місяць у форматі Excel
/reminder - Нагадування про найближче служіння
/cancel - Скасувати поточну дію
/id - Показати ваш ID та ID чату
/help - Показати список доступних команд`

	Cancel    = "Скасувати"
	Cancelled = "Дію скасовано."
	Failure   = "😢 Щось пішло не так. Спробуйте пізніше."

	AskDate         = "Оберіть дату служіння:"
	BadDateFormat   = "Не вдалося розпізнати дату. Введіть дату у форматі ДД.ММ.РРРР або оберіть зі списку:"
	DateNotOffered  = "Ця дата недоступна. Оберіть одну з запропонованих дат:"
	NoOfferedDates  = "Найближчим часом немає дат для служінь."
	PreacherUnknown = "Такого проповідника немає у списку. Оберіть зі списку:"

	EmptySchedule  = "Розклад порожній."
	AskDeleteDate  = "Оберіть дату, з якої потрібно видалити:"
	NoSuchDate     = "Такої дати немає в розкладі."
	UnknownChoice  = "Невідомий вибір. Дію скасовано."
	DeleteFailed   = "Не вдалося видалити: такого проповідника немає на цю дату."
	AskExportMonth = "Оберіть місяць для експорту:"
	NoSuchMonth    = "За цей місяць немає записів. Дію скасовано."

	GenericReminder = "Не забудьте, що цього тижня у нас відбудеться церковний захід!"
)

// Choices offered when deleting from a date
const (
	ChoiceDeleteDate = "Видалити всю дату"
	ChoiceDeleteOne  = "Видалити одного з проповідників"
	ChoiceDeleteSole = "Видалити проповідника"
)

// AskPreacher prompts for the preacher of date
func AskPreacher(date string) string {
	return fmt.Sprintf("Оберіть проповідника на %s:", date)
}

// PreacherAdded confirms a new assignment
func PreacherAdded(name, date string) string {
	return fmt.Sprintf("✅ %s призначено на %s.", name, date)
}

// PreacherAlreadyAdded reports an assignment that already existed
func PreacherAlreadyAdded(name, date string) string {
	return fmt.Sprintf("ℹ️ %s вже призначено на %s.", name, date)
}

// AskDeleteDecision lists who serves on date and asks what to remove
func AskDeleteDecision(date string, preachers []string) string {
	return fmt.Sprintf("На %s призначено: %s. Що видалити?", date, strings.Join(preachers, ", "))
}

// AskDeletePreacher prompts for the preacher to remove from date
func AskDeletePreacher(date string) string {
	return fmt.Sprintf("Кого видалити з %s?", date)
}

// DateDeleted confirms removal of a whole date
func DateDeleted(date string) string {
	return fmt.Sprintf("🗑 Дату %s видалено з розкладу.", date)
}

// PreacherDeleted confirms removal of one preacher
func PreacherDeleted(name, date string) string {
	return fmt.Sprintf("🗑 %s видалено з %s.", name, date)
}

// ExportCaption captions the exported workbook of month
func ExportCaption(month string) string {
	return fmt.Sprintf("Розклад на %s", month)
}

// Identity shows the caller's user and chat IDs
func Identity(userID, chatID int64) string {
	return fmt.Sprintf("Ваш ID: %d\nID чату: %d", userID, chatID)
}

// RenderSchedule formats the whole schedule grouped by date in calendar order
func RenderSchedule(sched schedule.Schedule) string {
	if len(sched) == 0 {
		return EmptySchedule
	}
	var b strings.Builder
	b.WriteString("📅 Розклад проповідників:\n")
	for _, date := range sched.Dates() {
		b.WriteString("\n")
		b.WriteString(dateLabel(date))
		b.WriteString(": ")
		b.WriteString(strings.Join(sched[date], ", "))
	}
	return b.String()
}

func dateLabel(date string) string {
	t, err := schedule.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", date, schedule.WeekdayAbbrev(t))
}

// Phraser turns an intent plus context into a chat message
type Phraser interface {
	GenerateChatMessage(ctx context.Context, intent string, contextData map[string]interface{}) (string, error)
}

// Service provides message generation functionality
type Service struct {
	phraser Phraser
	logger  *logger.Logger
}

// New creates a new message service; phraser may be nil
func New(phraser Phraser) *Service {
	return &Service{
		phraser: phraser,
		logger:  logger.New("messages"),
	}
}

// ReminderText generates the reminder broadcast for one service date
func (s *Service) ReminderText(ctx context.Context, date string, preachers []string, daysLeft int) string {
	if s.phraser != nil {
		msg, err := s.phraser.GenerateChatMessage(ctx, "service_reminder", map[string]interface{}{
			"date":      dateLabel(date),
			"preachers": preachers,
			"days_left": daysLeft,
		})
		if err == nil && mentionsAll(msg, preachers) {
			return msg
		}
		if err != nil {
			s.logger.Error("Failed to generate reminder message: %v", err)
		} else {
			s.logger.Warn("Generated reminder for %s dropped a preacher name, using template", date)
		}
	}
	if daysLeft == 0 {
		return fmt.Sprintf("⏰ Нагадування! Сьогодні, %s, проповідують: %s.",
			dateLabel(date), strings.Join(preachers, ", "))
	}
	return fmt.Sprintf("⏰ Нагадування! %s через %d дн. проповідують: %s.",
		dateLabel(date), daysLeft, strings.Join(preachers, ", "))
}

func mentionsAll(msg string, names []string) bool {
	for _, n := range names {
		if !strings.Contains(msg, n) {
			return false
		}
	}
	return true
}
