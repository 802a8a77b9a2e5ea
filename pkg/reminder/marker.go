package reminder

import (
	"sort"
	"strings"
	"time"

	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/korjavin/preacherbot/pkg/storage"
	"github.com/pkg/errors"
)

const markerPrefix = "reminded:"

// Marker remembers which assignments were already announced at a given lead
type Marker interface {
	Marked(date string, leadDays int, preachers []string) (bool, error)
	Mark(date string, leadDays int, preachers []string) error
	// Prune forgets marks of dates missing from sched
	Prune(sched schedule.Schedule) (int, error)
}

type mark struct {
	LeadDays  int       `json:"lead_days"`
	Preachers []string  `json:"preachers"`
	SentAt    time.Time `json:"sent_at"`
}

// StoreMarker keeps reminder marks in the key/value storage
type StoreMarker struct {
	kv  *storage.Store
	now func() time.Time
}

// NewStoreMarker creates a marker backed by kv
func NewStoreMarker(kv *storage.Store) *StoreMarker {
	return &StoreMarker{kv: kv, now: time.Now}
}

// Marked reports whether exactly these preachers were announced for date at
// leadDays before
func (m *StoreMarker) Marked(date string, leadDays int, preachers []string) (bool, error) {
	var rec mark
	err := m.kv.Get(markerPrefix+date, &rec)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read reminder mark of %s", date)
	}
	return rec.LeadDays == leadDays && sameNames(rec.Preachers, preachers), nil
}

// Mark records that preachers were announced for date at leadDays before
func (m *StoreMarker) Mark(date string, leadDays int, preachers []string) error {
	err := m.kv.Set(markerPrefix+date, mark{
		LeadDays:  leadDays,
		Preachers: sortedNames(preachers),
		SentAt:    m.now(),
	})
	return errors.Wrapf(err, "failed to write reminder mark of %s", date)
}

// Prune deletes the marks of dates no longer in sched and returns how many
// were removed
func (m *StoreMarker) Prune(sched schedule.Schedule) (int, error) {
	keys, err := m.kv.List(markerPrefix)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list reminder marks")
	}
	removed := 0
	for _, key := range keys {
		if _, ok := sched[strings.TrimPrefix(key, markerPrefix)]; ok {
			continue
		}
		if err := m.kv.Delete(key); err != nil {
			return removed, errors.Wrapf(err, "failed to delete reminder mark %s", key)
		}
		removed++
	}
	return removed, nil
}

func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedNames(a), sortedNames(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
