package bulletins

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshbbs/internal/common"
	"meshbbs/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE bulletins (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  board TEXT NOT NULL,
  sender_id TEXT NOT NULL,
  sender_name TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL,
  content TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  unique_id TEXT NOT NULL,
  read_by TEXT NOT NULL DEFAULT '[]'
);
`)
	require.NoError(t, err)

	return db
}

func testBulletin(ts time.Time) *models.Bulletin {
	return &models.Bulletin{
		Board:      "general",
		SenderID:   "!a1b2c3d4",
		SenderName: "KD9XYZ",
		Subject:    "Antenna party",
		Content:    "Saturday at the ridge, bring coax.",
		Timestamp:  ts,
		UniqueID:   models.Fingerprint("Saturday at the ridge, bring coax.", "!a1b2c3d4", ts),
	}
}

func TestCreateAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	b := testBulletin(ts)
	require.NoError(t, r.Create(ctx, b))
	require.NotZero(t, b.ID)

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "general", got.Board)
	assert.Equal(t, "Antenna party", got.Subject)
	assert.Equal(t, ts, got.Timestamp)
	assert.Equal(t, b.UniqueID, got.UniqueID)
	assert.Empty(t, got.ReadBy)
}

func TestGetByUniqueID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	b := testBulletin(time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC))
	require.NoError(t, r.Create(ctx, b))

	got, err := r.GetByUniqueID(ctx, b.UniqueID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = r.GetByUniqueID(ctx, "no-such-fingerprint")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearch_MatchesSubjectAndContent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, r.Create(ctx, testBulletin(ts)))

	other := testBulletin(ts.Add(time.Hour))
	other.Subject = "Net schedule"
	other.Content = "Weekly net moves to 1900 local."
	other.UniqueID = models.Fingerprint(other.Content, other.SenderID, other.Timestamp)
	require.NoError(t, r.Create(ctx, other))

	bySubject, err := r.Search(ctx, "Antenna")
	require.NoError(t, err)
	require.Len(t, bySubject, 1)

	byContent, err := r.Search(ctx, "1900 local")
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, "Net schedule", byContent[0].Subject)
}

func TestGetSince_StrictlyNewer(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	old := testBulletin(t0)
	require.NoError(t, r.Create(ctx, old))

	fresh := testBulletin(t0.Add(2 * time.Hour))
	fresh.Content = "fresh content"
	fresh.UniqueID = models.Fingerprint(fresh.Content, fresh.SenderID, fresh.Timestamp)
	require.NoError(t, r.Create(ctx, fresh))

	got, err := r.GetSince(ctx, t0)
	require.NoError(t, err)
	require.Len(t, got, 1, "boundary timestamp must be excluded")
	assert.Equal(t, fresh.UniqueID, got[0].UniqueID)
}

func TestMarkRead_Idempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	b := testBulletin(time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC))
	require.NoError(t, r.Create(ctx, b))

	require.NoError(t, r.MarkRead(ctx, b.ID, "!ffffffff"))
	require.NoError(t, r.MarkRead(ctx, b.ID, "!ffffffff"))

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"!ffffffff"}, got.ReadBy)
}

func TestListByBoardAndCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, r.Create(ctx, testBulletin(ts)))

	urgent := testBulletin(ts.Add(time.Minute))
	urgent.Board = "urgent"
	urgent.UniqueID = models.Fingerprint(urgent.Content, urgent.SenderID, urgent.Timestamp)
	require.NoError(t, r.Create(ctx, urgent))

	general, err := r.ListByBoard(ctx, "general", 0)
	require.NoError(t, err)
	assert.Len(t, general, 1)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
