package mail

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
CREATE TABLE mail (
  id TEXT PRIMARY KEY,
  sender_id TEXT NOT NULL,
  sender_name TEXT NOT NULL DEFAULT '',
  recipient_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  content TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  read INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestCreate_AssignsID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	m := &models.MailMessage{
		SenderID:    "!a1b2c3d4",
		SenderName:  "KD9XYZ",
		RecipientID: "!ffffffff",
		Subject:     "checking in",
		Content:     "all quiet up here",
		Timestamp:   time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, r.Create(ctx, m))
	require.NotEmpty(t, m.ID)

	got, err := r.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "checking in", got.Subject)
	assert.False(t, got.Read)
}

func TestListForRecipient_NewestFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i, subject := range []string{"first", "second"} {
		require.NoError(t, r.Create(ctx, &models.MailMessage{
			SenderID:    "!a1b2c3d4",
			RecipientID: "!ffffffff",
			Subject:     subject,
			Content:     subject,
			Timestamp:   t0.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, r.Create(ctx, &models.MailMessage{
		SenderID:    "!a1b2c3d4",
		RecipientID: "!eeeeeeee",
		Subject:     "not yours",
		Content:     "x",
		Timestamp:   t0,
	}))

	got, err := r.ListForRecipient(ctx, "!ffffffff")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Subject)
	assert.Equal(t, "first", got[1].Subject)
}

func TestMarkReadAndCountUnread(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	m := &models.MailMessage{
		SenderID:    "!a1b2c3d4",
		RecipientID: "!ffffffff",
		Subject:     "s",
		Content:     "c",
		Timestamp:   time.Now(),
	}
	require.NoError(t, r.Create(ctx, m))

	n, err := r.CountUnread(ctx, "!ffffffff")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.MarkRead(ctx, m.ID))

	n, err = r.CountUnread(ctx, "!ffffffff")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	m := &models.MailMessage{
		SenderID:    "!a1b2c3d4",
		RecipientID: "!ffffffff",
		Subject:     "s",
		Content:     "c",
		Timestamp:   time.Now(),
	}
	require.NoError(t, r.Create(ctx, m))

	require.NoError(t, r.Delete(ctx, m.ID))
	assert.ErrorIs(t, r.Delete(ctx, m.ID), common.ErrNotFound)

	_, err := r.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
