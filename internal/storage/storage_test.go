package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/kv"
)

var _ kv.Store = (*Store)(nil)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "todo.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestLoadMissingKey(t *testing.T) {
	s, _ := openTemp(t)

	v, found, err := s.Load(kv.KeyTodos)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, v)
}

func TestSaveOverwritesAndPersists(t *testing.T) {
	s, path := openTemp(t)
	saved := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return saved }

	require.NoError(t, s.Save(kv.KeyTodos, `[]`))
	require.NoError(t, s.Save(kv.KeyTodos, `[{"id":"1"}]`))
	require.NoError(t, s.Save(kv.KeyDarkMode, `true`))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, found, err := reopened.Load(kv.KeyTodos)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, v)

	v, found, err = reopened.Load(kv.KeyDarkMode)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "true", v)

	ts, ok, err := reopened.UpdatedAt(kv.KeyTodos)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ts.Equal(saved))
}

func TestOpenAddsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", sqliteDSN(path))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL);
INSERT INTO kv (key, value) VALUES ('todos', '[]');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, found, err := s.Load(kv.KeyTodos)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)

	_, ok, err := s.UpdatedAt(kv.KeyTodos)
	require.NoError(t, err)
	assert.False(t, ok, "rows written before the column existed have no timestamp")

	require.NoError(t, s.Save(kv.KeyTodos, `[1]`))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:memdb?mode=memory", sqliteDSN("file:memdb?mode=memory"))

	dsn := sqliteDSN(filepath.Join(t.TempDir(), "todo.db"))
	assert.True(t, strings.HasPrefix(dsn, "file://"), dsn)
	assert.Contains(t, dsn, "mode=rwc")
	assert.Contains(t, dsn, "busy_timeout")
}
