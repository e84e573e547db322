package store

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localStorages(t *testing.T) map[string]LocalStorage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]LocalStorage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "nested", "storage.json")),
		"sqlite": sqlite,
	}
}

func TestLocalStorage_Contract(t *testing.T) {
	for name, s := range localStorages(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.GetItem("jwt")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.SetItem("jwt", `"abc"`))
			v, ok, err := s.GetItem("jwt")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `"abc"`, v)

			require.NoError(t, s.SetItem("jwt", `"def"`))
			v, _, err = s.GetItem("jwt")
			require.NoError(t, err)
			assert.Equal(t, `"def"`, v)

			require.NoError(t, s.RemoveItem("jwt"))
			_, ok, err = s.GetItem("jwt")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, s.RemoveItem("missing"))
		})
	}
}

func TestFileStorage_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir", "storage.json")
	s := NewFileStorage(path)

	require.NoError(t, s.SetItem("jwt", `"abc"`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// a second instance sees the same items
	v, ok, err := NewFileStorage(path).GetItem("jwt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"abc"`, v)
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStorage(path).GetItem("jwt")

	assert.Error(t, err)
}

func TestSQLiteStorage_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")

	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("jwt", `"abc"`))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.GetItem("jwt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"abc"`, v)
}

func TestMemoryCookies(t *testing.T) {
	c := NewMemoryCookies()
	opts := CookieOptions{Path: "/", Secure: true}

	require.NoError(t, c.Set("jwt", "abc", opts))

	v, ok, err := c.Get("jwt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	got, ok := c.Options("jwt")
	assert.True(t, ok)
	assert.Equal(t, opts, got)

	require.NoError(t, c.Remove("jwt", opts))
	_, ok, err = c.Get("jwt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJarCookies(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("jwt"); err == nil {
			gotCookie = c.Value
		}
	}))
	defer server.Close()

	c, err := NewJarCookies(server.URL)
	require.NoError(t, err)

	opts := CookieOptions{Path: "/"}
	require.NoError(t, c.Set("jwt", "abc.def.ghi", opts))

	v, ok, err := c.Get("jwt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", v)

	// the jar sends the cookie with requests to the base URL
	client := &http.Client{Jar: c.Jar()}
	resp, err := client.Get(server.URL + "/users/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc.def.ghi", gotCookie)

	require.NoError(t, c.Remove("jwt", opts))
	_, ok, err = c.Get("jwt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewJarCookies_InvalidURL(t *testing.T) {
	_, err := NewJarCookies("not a url")

	assert.Error(t, err)
}
