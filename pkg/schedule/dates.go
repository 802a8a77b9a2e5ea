package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the canonical textual form of a schedule date
const DateLayout = "02.01.2006"

// ErrInvalidDate is returned when text cannot be read as a calendar date
var ErrInvalidDate = errors.New("invalid date")

var weekdayAbbrev = [...]string{"Нд", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// ParseDate reads D.M.YYYY or DD.MM.YYYY text as a date at midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2.1.2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return t, nil
}

// CanonicalDate normalizes date text to DD.MM.YYYY
func CanonicalDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// FormatDate renders the calendar date of t in the canonical form
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekdayAbbrev returns the short Ukrainian weekday name for t
func WeekdayAbbrev(t time.Time) string {
	return weekdayAbbrev[t.Weekday()]
}

// SortDates orders canonical date strings by calendar value in place.
// Strings that do not parse sort after all valid dates.
func SortDates(dates []string) {
	sort.SliceStable(dates, func(i, j int) bool {
		a, errA := ParseDate(dates[i])
		b, errB := ParseDate(dates[j])
		switch {
		case errA != nil && errB != nil:
			return dates[i] < dates[j]
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a.Before(b)
	})
}

// DaysUntil returns the number of calendar days from the date of now
// (in now's location) to date. Past dates yield negative values.
func DaysUntil(now time.Time, date string) (int, error) {
	target, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today).Hours() / 24), nil
}

// OfferedDates lists every date from today through the last day of next
// month that falls on one of the given weekdays, in calendar order
func OfferedDates(now time.Time, weekdays [2]time.Weekday) []string {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	// day 0 of the month after next is the last day of next month
	last := time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC)

	var out []string
	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == weekdays[0] || wd == weekdays[1] {
			out = append(out, FormatDate(day))
		}
	}
	return out
}
