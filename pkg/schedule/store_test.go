package schedule

import (
	"fmt"
	"sync"
	"testing"

	"github.com/korjavin/preacherbot/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv)
}

func TestUpsertPreacherDeduplicates(t *testing.T) {
	s := newTestStore(t)

	added, err := s.UpsertPreacher("01.05.2025", "A")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.UpsertPreacher("1.5.2025", "A")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.UpsertPreacher("01.05.2025", "B")
	require.NoError(t, err)

	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Equal(t, Schedule{"01.05.2025": {"A", "B"}}, all)
}

func TestUpsertPreacherRejectsBadInput(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertPreacher("not a date", "A")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.UpsertPreacher("01.05.2025", "  ")
	assert.ErrorIs(t, err, ErrEmptyName)

	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeletePreacherCascades(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertPreacher("01.05.2025", "A")
	require.NoError(t, err)

	removed, err := s.DeletePreacher("01.05.2025", "A")
	require.NoError(t, err)
	assert.True(t, removed)

	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	_, found, err := s.Get("01.05.2025")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeletePreacherKeepsOthers(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []string{"A", "B", "C"} {
		_, err := s.UpsertPreacher("04.05.2025", p)
		require.NoError(t, err)
	}

	removed, err := s.DeletePreacher("04.05.2025", "B")
	require.NoError(t, err)
	assert.True(t, removed)

	rec, found, err := s.Get("04.05.2025")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"A", "C"}, rec.Preachers)

	for _, p := range []string{"A", "C"} {
		_, err := s.DeletePreacher("04.05.2025", p)
		require.NoError(t, err)
	}
	all, err := s.ListAll()
	require.NoError(t, err)
	assert.NotContains(t, all, "04.05.2025")
}

func TestDeletePreacherMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertPreacher("04.05.2025", "A")
	require.NoError(t, err)

	removed, err := s.DeletePreacher("04.05.2025", "Z")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.DeletePreacher("11.05.2025", "A")
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Equal(t, Schedule{"04.05.2025": {"A"}}, all)
}

func TestDeleteDate(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertPreacher("04.05.2025", "A")
	require.NoError(t, err)
	_, err = s.UpsertPreacher("07.05.2025", "B")
	require.NoError(t, err)

	existed, err := s.DeleteDate("04.05.2025")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteDate("04.05.2025")
	require.NoError(t, err)
	assert.False(t, existed)

	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Equal(t, Schedule{"07.05.2025": {"B"}}, all)
}

func TestListAllIsSnapshot(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertPreacher("04.05.2025", "A")
	require.NoError(t, err)

	snap, err := s.ListAll()
	require.NoError(t, err)
	snap["04.05.2025"][0] = "mutated"

	_, err = s.UpsertPreacher("04.05.2025", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"mutated"}, snap["04.05.2025"])

	fresh, err := s.ListAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, fresh["04.05.2025"])
}

func TestScheduleDatesSorted(t *testing.T) {
	sched := Schedule{"01.02.2026": {"A"}, "28.12.2025": {"B"}, "05.01.2026": {"C"}}
	assert.Equal(t, []string{"28.12.2025", "05.01.2026", "01.02.2026"}, sched.Dates())
}

func TestConcurrentUpsertsSameDate(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpsertPreacher("04.05.2025", fmt.Sprintf("P%d", i%10))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, found, err := s.Get("04.05.2025")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, rec.Preachers, 10)
	assert.Empty(t, s.locks.locks)
}
