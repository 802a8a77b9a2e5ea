package dialog

import (
	"context"
	"strings"
	"time"

	"github.com/korjavin/preacherbot/pkg/export"
	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/messages"
	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/korjavin/preacherbot/pkg/session"
	"github.com/pkg/errors"
)

// ScheduleStore is the part of the schedule the dialog reads and mutates
type ScheduleStore interface {
	UpsertPreacher(date, name string) (bool, error)
	Get(date string) (schedule.Assignment, bool, error)
	ListAll() (schedule.Schedule, error)
	DeleteDate(date string) (bool, error)
	DeletePreacher(date, name string) (bool, error)
}

// Machine interprets user text against the user's current dialog stage
type Machine struct {
	store    ScheduleStore
	sessions session.Store
	roster   []string
	weekdays [2]time.Weekday
	loc      *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// New creates a dialog machine. Dates are offered on the two weekdays and
// evaluated in loc; roster is the list of preachers offered for assignment.
func New(store ScheduleStore, sessions session.Store, roster []string, weekdays [2]time.Weekday, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{
		store:    store,
		sessions: sessions,
		roster:   append([]string(nil), roster...),
		weekdays: weekdays,
		loc:      loc,
		now:      time.Now,
		logger:   logger.New("dialog"),
	}
}

// StartAdd begins the add dialog, replacing any active session
func (m *Machine) StartAdd(ctx context.Context, userID int64) Reply {
	offered := schedule.OfferedDates(m.now().In(m.loc), m.weekdays)
	if len(offered) == 0 {
		return m.end(ctx, userID, messages.NoOfferedDates)
	}
	return m.advance(ctx, userID, session.AwaitingDate{Offered: offered}, prompt(messages.AskDate, offered))
}

// StartDelete begins the delete dialog, offering the dates in the schedule
func (m *Machine) StartDelete(ctx context.Context, userID int64) Reply {
	sched, err := m.store.ListAll()
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	if len(sched) == 0 {
		return m.end(ctx, userID, messages.EmptySchedule)
	}
	dates := sched.Dates()
	return m.advance(ctx, userID, session.AwaitingDeleteDate{Offered: dates}, prompt(messages.AskDeleteDate, dates))
}

// StartExport begins the export dialog, offering months that have assignments
func (m *Machine) StartExport(ctx context.Context, userID int64) Reply {
	sched, err := m.store.ListAll()
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	months := export.Months(sched)
	if len(months) == 0 {
		return m.end(ctx, userID, messages.EmptySchedule)
	}
	return m.advance(ctx, userID, session.AwaitingExportMonth{Offered: months}, prompt(messages.AskExportMonth, months))
}

// Cancel drops the user's session
func (m *Machine) Cancel(ctx context.Context, userID int64) Reply {
	return m.end(ctx, userID, messages.Cancelled)
}

// Handle consumes one message. It returns false when the user has no
// active session and the text was left alone.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) (Reply, bool) {
	st, err := m.sessions.Get(ctx, userID)
	if errors.Is(err, session.ErrNoSession) {
		return Reply{}, false
	}
	if err != nil {
		return m.fail(ctx, userID, err), true
	}

	text = strings.TrimSpace(text)
	if text == messages.Cancel || text == "/cancel" {
		return m.Cancel(ctx, userID), true
	}

	m.logger.Debug("User %d at %s sent %q", userID, st.Stage(), text)

	switch st := st.(type) {
	case session.AwaitingDate:
		return m.onDate(ctx, userID, st, text), true
	case session.AwaitingPreacher:
		return m.onPreacher(ctx, userID, st, text), true
	case session.AwaitingDeleteDate:
		return m.onDeleteDate(ctx, userID, text), true
	case session.AwaitingDeleteDecision:
		return m.onDeleteDecision(ctx, userID, st, text), true
	case session.AwaitingDeletePreacher:
		return m.onDeletePreacher(ctx, userID, st, text), true
	case session.AwaitingExportMonth:
		return m.onExportMonth(ctx, userID, st, text), true
	}
	return m.fail(ctx, userID, errors.Errorf("unhandled stage %s", st.Stage())), true
}

func (m *Machine) onDate(ctx context.Context, userID int64, st session.AwaitingDate, text string) Reply {
	date, err := schedule.CanonicalDate(text)
	if err != nil {
		return retry(messages.BadDateFormat, st.Offered)
	}
	if !contains(st.Offered, date) {
		return retry(messages.DateNotOffered, st.Offered)
	}
	next := session.AwaitingPreacher{Date: date, Offered: m.roster}
	return m.advance(ctx, userID, next, prompt(messages.AskPreacher(date), m.roster))
}

func (m *Machine) onPreacher(ctx context.Context, userID int64, st session.AwaitingPreacher, name string) Reply {
	if !contains(st.Offered, name) {
		return retry(messages.PreacherUnknown, st.Offered)
	}
	added, err := m.store.UpsertPreacher(st.Date, name)
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	if !added {
		return m.end(ctx, userID, messages.PreacherAlreadyAdded(name, st.Date))
	}
	m.logger.Info("User %d assigned %s to %s", userID, name, st.Date)
	return m.end(ctx, userID, messages.PreacherAdded(name, st.Date))
}

func (m *Machine) onDeleteDate(ctx context.Context, userID int64, text string) Reply {
	date, err := schedule.CanonicalDate(text)
	if err != nil {
		return m.end(ctx, userID, messages.NoSuchDate)
	}
	rec, found, err := m.store.Get(date)
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	if !found {
		return m.end(ctx, userID, messages.NoSuchDate)
	}

	choices := []string{messages.ChoiceDeleteDate, messages.ChoiceDeleteSole}
	if len(rec.Preachers) > 1 {
		choices[1] = messages.ChoiceDeleteOne
	}
	next := session.AwaitingDeleteDecision{Date: date, Preachers: rec.Preachers, Choices: choices}
	return m.advance(ctx, userID, next, prompt(messages.AskDeleteDecision(date, rec.Preachers), choices))
}

func (m *Machine) onDeleteDecision(ctx context.Context, userID int64, st session.AwaitingDeleteDecision, choice string) Reply {
	if !contains(st.Choices, choice) {
		return m.end(ctx, userID, messages.UnknownChoice)
	}

	switch choice {
	case messages.ChoiceDeleteDate:
		existed, err := m.store.DeleteDate(st.Date)
		if err != nil {
			return m.fail(ctx, userID, err)
		}
		if !existed {
			return m.end(ctx, userID, messages.NoSuchDate)
		}
		m.logger.Info("User %d deleted date %s", userID, st.Date)
		return m.end(ctx, userID, messages.DateDeleted(st.Date))

	case messages.ChoiceDeleteSole:
		if len(st.Preachers) == 0 {
			return m.end(ctx, userID, messages.DeleteFailed)
		}
		return m.removePreacher(ctx, userID, st.Date, st.Preachers[0])

	case messages.ChoiceDeleteOne:
		next := session.AwaitingDeletePreacher{Date: st.Date, Preachers: st.Preachers}
		return m.advance(ctx, userID, next, prompt(messages.AskDeletePreacher(st.Date), st.Preachers))
	}
	return m.end(ctx, userID, messages.UnknownChoice)
}

func (m *Machine) onDeletePreacher(ctx context.Context, userID int64, st session.AwaitingDeletePreacher, name string) Reply {
	if !contains(st.Preachers, name) {
		return m.end(ctx, userID, messages.DeleteFailed)
	}
	return m.removePreacher(ctx, userID, st.Date, name)
}

func (m *Machine) removePreacher(ctx context.Context, userID int64, date, name string) Reply {
	removed, err := m.store.DeletePreacher(date, name)
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	if !removed {
		return m.end(ctx, userID, messages.DeleteFailed)
	}
	m.logger.Info("User %d removed %s from %s", userID, name, date)
	return m.end(ctx, userID, messages.PreacherDeleted(name, date))
}

func (m *Machine) onExportMonth(ctx context.Context, userID int64, st session.AwaitingExportMonth, month string) Reply {
	if !contains(st.Offered, month) {
		return m.end(ctx, userID, messages.NoSuchMonth)
	}
	sched, err := m.store.ListAll()
	if err != nil {
		return m.fail(ctx, userID, err)
	}
	data, err := export.Workbook(sched, month)
	if errors.Is(err, export.ErrEmptyMonth) {
		return m.end(ctx, userID, messages.NoSuchMonth)
	}
	if err != nil {
		return m.fail(ctx, userID, err)
	}

	r := m.end(ctx, userID, messages.ExportCaption(month))
	r.Document = &Document{Name: export.FileName(month), Data: data}
	return r
}

// advance stores the next stage and returns its prompt
func (m *Machine) advance(ctx context.Context, userID int64, next session.State, r Reply) Reply {
	if err := m.sessions.Set(ctx, userID, next); err != nil {
		return m.fail(ctx, userID, err)
	}
	r.Options = withCancel(r.Options)
	return r
}

// end removes the session and returns a closing reply
func (m *Machine) end(ctx context.Context, userID int64, text string) Reply {
	if err := m.sessions.Clear(ctx, userID); err != nil {
		m.logger.Error("Failed to clear session of user %d: %v", userID, err)
	}
	return done(text)
}

// fail logs the internal error and ends the session with a generic message
func (m *Machine) fail(ctx context.Context, userID int64, err error) Reply {
	m.logger.Error("Dialog of user %d failed: %v", userID, err)
	return m.end(ctx, userID, messages.Failure)
}

// retry re-prompts within the current stage; the session is left as is
func retry(text string, options []string) Reply {
	return prompt(text, withCancel(options))
}

func withCancel(options []string) []string {
	return append(append([]string(nil), options...), messages.Cancel)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
