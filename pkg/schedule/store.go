package schedule

import (
	"strings"
	"sync"

	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/storage"
	"github.com/pkg/errors"
)

const keyPrefix = "schedule:"

// ErrEmptyName is returned when a blank preacher name is supplied
var ErrEmptyName = errors.New("empty preacher name")

// Assignment is the persisted record of one service date
type Assignment struct {
	Date      string   `json:"date"`
	Preachers []string `json:"preachers"`
}

// Schedule is a snapshot of all assignments keyed by canonical date
type Schedule map[string][]string

// Dates returns the snapshot's dates in calendar order
func (s Schedule) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	SortDates(dates)
	return dates
}

// Store provides schedule operations on top of the key/value storage
type Store struct {
	kv     *storage.Store
	locks  keyedMutex
	logger *logger.Logger
}

// New creates a new schedule store
func New(kv *storage.Store) *Store {
	return &Store{
		kv:     kv,
		locks:  keyedMutex{locks: make(map[string]*keyLock)},
		logger: logger.New("schedule"),
	}
}

func dateKey(date string) string {
	return keyPrefix + date
}

// UpsertPreacher adds name to the preachers of date, creating the date
// record when missing. It reports whether the name was newly added.
func (s *Store) UpsertPreacher(date, name string) (bool, error) {
	date, err := CanonicalDate(date)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}

	unlock := s.locks.Lock(date)
	defer unlock()

	added := false
	var rec Assignment
	err = s.kv.Update(dateKey(date), &rec, func(found bool) (bool, error) {
		if !found {
			rec = Assignment{Date: date}
		}
		if contains(rec.Preachers, name) {
			return true, nil
		}
		rec.Preachers = append(rec.Preachers, name)
		added = true
		return true, nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to add %s to %s", name, date)
	}
	if added {
		s.logger.Info("Assigned %s to %s", name, date)
	}
	return added, nil
}

// Get returns the assignment for a single date
func (s *Store) Get(date string) (Assignment, bool, error) {
	date, err := CanonicalDate(date)
	if err != nil {
		return Assignment{}, false, err
	}
	var rec Assignment
	if err := s.kv.Get(dateKey(date), &rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Assignment{}, false, nil
		}
		return Assignment{}, false, errors.Wrapf(err, "failed to read %s", date)
	}
	return rec, true, nil
}

// ListAll returns a snapshot of every assignment. The result is owned by the
// caller and does not reflect later writes.
func (s *Store) ListAll() (Schedule, error) {
	out := make(Schedule)
	err := s.kv.Scan(keyPrefix, func(key string, decode func(v interface{}) error) error {
		var rec Assignment
		if err := decode(&rec); err != nil {
			s.logger.Error("Skipping undecodable record %s: %v", key, err)
			return nil
		}
		if len(rec.Preachers) == 0 {
			return nil
		}
		out[rec.Date] = append([]string(nil), rec.Preachers...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list schedule")
	}
	return out, nil
}

// DeleteDate removes the whole date record and reports whether it existed
func (s *Store) DeleteDate(date string) (bool, error) {
	date, err := CanonicalDate(date)
	if err != nil {
		return false, err
	}

	unlock := s.locks.Lock(date)
	defer unlock()

	existed := false
	var rec Assignment
	err = s.kv.Update(dateKey(date), &rec, func(found bool) (bool, error) {
		existed = found
		return false, nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete %s", date)
	}
	if existed {
		s.logger.Info("Deleted date %s", date)
	}
	return existed, nil
}

// DeletePreacher removes name from date. When no preachers remain the date
// record is removed as well. It reports whether a removal happened.
func (s *Store) DeletePreacher(date, name string) (bool, error) {
	date, err := CanonicalDate(date)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)

	unlock := s.locks.Lock(date)
	defer unlock()

	removed := false
	var rec Assignment
	err = s.kv.Update(dateKey(date), &rec, func(found bool) (bool, error) {
		if !found {
			return false, nil
		}
		kept := rec.Preachers[:0]
		for _, p := range rec.Preachers {
			if p == name {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		rec.Preachers = kept
		return len(kept) > 0, nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to remove %s from %s", name, date)
	}
	if removed {
		s.logger.Info("Removed %s from %s", name, date)
	}
	return removed, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// keyedMutex serializes work per date without a store-wide lock
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
