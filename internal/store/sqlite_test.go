package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot-estoque/internal/models"
)

func sqliteStoreAt(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := sqliteStoreAt(t)
	snap := sampleSnapshot()

	require.NoError(t, s.Save(snap))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, len(snap))
	for code, want := range snap {
		got := loaded[code]
		require.NotNil(t, got, "item %s não foi carregado", code)
		assert.Equal(t, want.URL, got.URL)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Status, got.Status)
		assert.True(t, want.FirstSeen.Equal(got.FirstSeen))
		assert.True(t, want.StatusSince.Equal(got.StatusSince))
	}
}

func TestSQLiteSaveSubstituiTudo(t *testing.T) {
	s := sqliteStoreAt(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	smaller := models.Snapshot{
		"999999": &models.Item{
			Code:        "999999",
			URL:         "https://loja.com/novo-999999.html",
			FirstSeen:   now,
			Status:      models.StatusPresent,
			StatusSince: now,
		},
	}
	require.NoError(t, s.Save(smaller))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.NotNil(t, loaded["999999"])
}

func TestSQLiteMigraV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")

	// Montar um banco v1 (sem a coluna name)
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE schema_version (version INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO schema_version (version) VALUES (1)`)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE items (
		code TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		first_seen DATETIME NOT NULL,
		status INTEGER NOT NULL,
		status_since DATETIME NOT NULL
	)`)
	require.NoError(t, err)
	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err = conn.Exec(`INSERT INTO items (code, url, first_seen, status, status_since) VALUES (?, ?, ?, ?, ?)`,
		"438039197642", "https://disneystore.com/animal-pin-438039197642.html", first, 1, first)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	item := loaded["438039197642"]
	require.NotNil(t, item)
	assert.Empty(t, item.Name)
	assert.Equal(t, models.StatusPresent, item.Status)

	// Depois da migração o item aceita nome normalmente
	item.Name = "Animal Pin"
	require.NoError(t, s.Save(loaded))
	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "Animal Pin", reloaded["438039197642"].Name)
}

func TestSQLiteVersaoFutura(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE schema_version (version INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO schema_version (version) VALUES (99)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = NewSQLite(path)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestSQLiteClear(t *testing.T) {
	s := sqliteStoreAt(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	require.NoError(t, s.Clear())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
