package storage

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("r:1", record{Name: "one", Items: []string{"a"}}))

	var got record
	require.NoError(t, s.Get("r:1", &got))
	assert.Equal(t, "one", got.Name)
	assert.Equal(t, []string{"a"}, got.Items)

	require.NoError(t, s.Delete("r:1"))
	err := s.Get("r:1", &got)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListAndScanByPrefix(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("a:1", record{Name: "x"}))
	require.NoError(t, s.Set("a:2", record{Name: "y"}))
	require.NoError(t, s.Set("b:1", record{Name: "z"}))

	keys, err := s.List("a:")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a:1", "a:2"}, keys)

	names := map[string]string{}
	err = s.Scan("a:", func(key string, decode func(v interface{}) error) error {
		var r record
		if err := decode(&r); err != nil {
			return err
		}
		names[key] = r.Name
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a:1": "x", "a:2": "y"}, names)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	t.Run("creates missing key", func(t *testing.T) {
		var r record
		err := s.Update("u:1", &r, func(found bool) (bool, error) {
			assert.False(t, found)
			r.Name = "new"
			return true, nil
		})
		require.NoError(t, err)

		var got record
		require.NoError(t, s.Get("u:1", &got))
		assert.Equal(t, "new", got.Name)
	})

	t.Run("sees current value", func(t *testing.T) {
		var r record
		err := s.Update("u:1", &r, func(found bool) (bool, error) {
			assert.True(t, found)
			assert.Equal(t, "new", r.Name)
			r.Items = append(r.Items, "i")
			return true, nil
		})
		require.NoError(t, err)

		var got record
		require.NoError(t, s.Get("u:1", &got))
		assert.Equal(t, []string{"i"}, got.Items)
	})

	t.Run("error aborts without writing", func(t *testing.T) {
		var r record
		boom := errors.New("boom")
		err := s.Update("u:1", &r, func(bool) (bool, error) {
			r.Name = "changed"
			return true, boom
		})
		assert.True(t, errors.Is(err, boom))

		var got record
		require.NoError(t, s.Get("u:1", &got))
		assert.Equal(t, "new", got.Name)
	})

	t.Run("keep false deletes", func(t *testing.T) {
		var r record
		require.NoError(t, s.Update("u:1", &r, func(bool) (bool, error) { return false, nil }))
		assert.True(t, errors.Is(s.Get("u:1", &r), ErrNotFound))
	})

	t.Run("keep false on missing key is a no-op", func(t *testing.T) {
		var r record
		require.NoError(t, s.Update("u:missing", &r, func(bool) (bool, error) { return false, nil }))
	})
}
