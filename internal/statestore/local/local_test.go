package local

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/statestore"
)

func TestStore_Load_MissingFileIsNotFound(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))
	_, _, err := s.Load()
	assert.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestStore_SaveThenLoad_RoundTrips(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))

	st := statestore.Empty("0.1.0")
	version, err := s.Save(st, "")
	require.NoError(t, err)
	assert.NotEmpty(t, version)

	loaded, loadedVersion, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, st.Version, loaded.Version)
	assert.Equal(t, version, loadedVersion)
}

func TestStore_Save_RejectsStaleVersion(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))

	st := statestore.Empty("0.1.0")
	_, err := s.Save(st, "")
	require.NoError(t, err)

	_, err = s.Save(st, "stale-version-token")
	require.Error(t, err)
	var conflict *macrotine.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
