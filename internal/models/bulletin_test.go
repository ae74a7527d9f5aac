package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_DeterministicPerInput(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := Fingerprint("hello mesh", "!a1b2c3d4", ts)
	b := Fingerprint("hello mesh", "!a1b2c3d4", ts)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, Fingerprint("hello mesh", "!a1b2c3d4", ts.Add(time.Second)))
	assert.NotEqual(t, a, Fingerprint("hello mesh", "!ffffffff", ts))
	assert.NotEqual(t, a, Fingerprint("other", "!a1b2c3d4", ts))
}

func TestNewPeer_Defaults(t *testing.T) {
	p := NewPeer("!a1b2c3d4", "")

	assert.Equal(t, "Node c3d4", p.Name)
	assert.True(t, p.SyncEnabled)
	assert.Equal(t, 1, p.Priority)
	assert.True(t, p.SyncBulletins)
	assert.False(t, p.SyncMail)
	assert.True(t, p.SyncChannels)
	assert.Equal(t, 7, p.MaxSyncAgeDays)
	assert.Nil(t, p.LastSync)
}

func TestNewPeer_KeepsAnnouncedName(t *testing.T) {
	p := NewPeer("!a1b2c3d4", "Ridge Repeater BBS")
	assert.Equal(t, "Ridge Repeater BBS", p.Name)
}
