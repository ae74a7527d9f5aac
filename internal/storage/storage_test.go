package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshbbs/internal/models"
)

func TestOpen_MigratesAndRoundTrips(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	b := &models.Bulletin{
		Board:     "general",
		SenderID:  "!a1b2c3d4",
		Subject:   "hello",
		Content:   "first post",
		Timestamp: ts,
		UniqueID:  models.Fingerprint("first post", "!a1b2c3d4", ts),
	}
	require.NoError(t, s.Bulletins.Create(ctx, b))

	got, err := s.Bulletins.GetByUniqueID(ctx, b.UniqueID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Subject)

	c := &models.Channel{Name: "Ridge Repeater", Frequency: "146.940", AddedAt: ts, Active: true}
	require.NoError(t, s.Channels.Add(ctx, c))

	all, err := s.Channels.GetAll(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOpen_UniqueFingerprintEnforced(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	b := &models.Bulletin{
		Board:     "general",
		SenderID:  "!a1b2c3d4",
		Subject:   "hello",
		Content:   "first post",
		Timestamp: ts,
		UniqueID:  models.Fingerprint("first post", "!a1b2c3d4", ts),
	}
	require.NoError(t, s.Bulletins.Create(ctx, b))

	dup := *b
	dup.ID = 0
	assert.Error(t, s.Bulletins.Create(ctx, &dup))
}

func TestMarkReadRunsInTransaction(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	b := &models.Bulletin{
		Board:     "general",
		SenderID:  "!a1b2c3d4",
		Subject:   "hello",
		Content:   "first post",
		Timestamp: ts,
		UniqueID:  models.Fingerprint("first post", "!a1b2c3d4", ts),
	}
	require.NoError(t, s.Bulletins.Create(ctx, b))

	require.NoError(t, s.Bulletins.MarkRead(ctx, b.ID, "!11111111"))
	require.NoError(t, s.Bulletins.MarkRead(ctx, b.ID, "!11111111"))
	require.NoError(t, s.Bulletins.MarkRead(ctx, b.ID, "!22222222"))

	got, err := s.Bulletins.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"!11111111", "!22222222"}, got.ReadBy)
}
