package namestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "names.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	blob := []byte{0x00, 0x00, 0x00, 0x00}
	require.NoError(t, s.Put("alice", blob))

	got, ok, err := s.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob, got)
	assert.Equal(t, 1, s.Len())
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMightContain(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("alice", []byte{0}))

	assert.True(t, s.MightContain("alice"))
	assert.False(t, s.MightContain("definitely-not-registered"))
}

func TestPutRejectsEmptyName(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put("", []byte{0}))
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("alice", []byte{1}))
	require.NoError(t, s.Put("alice", []byte{2}))

	got, ok, err := s.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, got)
	assert.Equal(t, 1, s.Len())
}

func TestFilterRebuiltOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.db")

	s, err := Open(path, 100)
	require.NoError(t, err)
	require.NoError(t, s.Put("alice", []byte{1}))
	require.NoError(t, s.Close())

	s, err = Open(path, 100)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.True(t, s.MightContain("alice"))
	got, ok, err := s.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, got)
}
