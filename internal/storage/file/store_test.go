package file

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ytsummarizer/internal/session"
)

var _ session.Store = (*Store)(nil)

func TestStore(t *testing.T) {
	const path = "/home/user/.config/ytsum/storage.json"

	newStore := func(t *testing.T, fs afero.Fs) *Store {
		s, err := New(fs, path)
		require.NoError(t, err, "store should be created without errors")
		return s
	}

	t.Run("get from not existed file", func(t *testing.T) {
		s := newStore(t, afero.NewMemMapFs())

		_, found, err := s.Get(t.Context(), "key")

		require.NoError(t, err, "missing file means empty storage")
		require.False(t, found)
	})

	t.Run("set persists to file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		s := newStore(t, fs)

		require.NoError(t, s.Set(t.Context(), "access_token", "a"))
		require.NoError(t, s.Set(t.Context(), "refresh_token", "b"))

		raw, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		require.JSONEq(t, `{"access_token": "a", "refresh_token": "b"}`, string(raw))

		info, err := fs.Stat(path)
		require.NoError(t, err)
		require.Equal(t, "-rw-------", info.Mode().Perm().String(), "storage file should be private")

		exists, err := afero.Exists(fs, path+".tmp")
		require.NoError(t, err)
		require.False(t, exists, "temporary file should be renamed")
	})

	t.Run("values survive new store", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, newStore(t, fs).Set(t.Context(), "darkMode", "true"))

		value, found, err := newStore(t, fs).Get(t.Context(), "darkMode")

		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "true", value)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t, afero.NewMemMapFs())
		require.NoError(t, s.Set(t.Context(), "key", "value"))
		require.NoError(t, s.Set(t.Context(), "other", "value"))

		require.NoError(t, s.Delete(t.Context(), "key"))
		require.NoError(t, s.Delete(t.Context(), "key"), "deleting missing key should not fail")

		_, found, err := s.Get(t.Context(), "key")
		require.NoError(t, err)
		require.False(t, found)

		_, found, err = s.Get(t.Context(), "other")
		require.NoError(t, err)
		require.True(t, found, "other keys should be kept")
	})

	t.Run("corrupted file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, path, []byte("not json"), 0o600))
		s := newStore(t, fs)

		_, _, err := s.Get(t.Context(), "key")
		require.Error(t, err)

		err = s.Set(t.Context(), "key", "value")
		require.Error(t, err, "corrupted file must not be silently overwritten")
	})
}
