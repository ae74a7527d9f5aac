package meshsync

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"meshbbs/internal/models"
)

// SyncType is the protocol message kind, as spelled on the wire.
type SyncType string

const (
	TypePeerDiscovery SyncType = "peer_discovery"
	TypePeerAnnounce  SyncType = "peer_announce"
	TypeSyncRequest   SyncType = "sync_request"
	TypeSyncResponse  SyncType = "sync_response"
	TypeSyncAck       SyncType = "sync_ack"

	// Reserved for future single-record push. Accepted as no-ops today so
	// newer nodes can start emitting them without breaking older ones.
	TypeBulletinSync SyncType = "bulletin_sync"
	TypeMailSync     SyncType = "mail_sync"
	TypeChannelSync  SyncType = "channel_sync"
)

// knownSyncType reports whether t is part of the protocol alphabet.
func knownSyncType(t SyncType) bool {
	switch t {
	case TypePeerDiscovery, TypePeerAnnounce, TypeSyncRequest, TypeSyncResponse,
		TypeSyncAck, TypeBulletinSync, TypeMailSync, TypeChannelSync:
		return true
	}
	return false
}

// SyncMessage is the unit of exchange between nodes. Recipient is empty for
// broadcasts. Payload holds the kind-specific data variant; it is nil for the
// reserved placeholder kinds.
type SyncMessage struct {
	Type      SyncType
	Sender    string
	Recipient string
	Timestamp time.Time
	SyncID    string
	Payload   any
}

// DiscoveryPayload asks "who else is out there?".
type DiscoveryPayload struct {
	RequestingNode string    `json:"requesting_node"`
	Timestamp      time.Time `json:"timestamp"`
}

// Capabilities lists the record categories a node offers for sync.
type Capabilities struct {
	Bulletins bool `json:"bulletins"`
	Mail      bool `json:"mail"`
	Channels  bool `json:"channels"`
}

// AnnouncePayload introduces a node by name and capability set.
type AnnouncePayload struct {
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
	Version      string       `json:"version"`
}

// RequestPayload asks a peer for records newer than the requester's cursor.
// A nil LastSync means "never synced"; the responder then falls back to
// MaxAgeDays.
type RequestPayload struct {
	LastSync      *time.Time `json:"last_sync"`
	SyncBulletins bool       `json:"sync_bulletins"`
	SyncMail      bool       `json:"sync_mail"`
	SyncChannels  bool       `json:"sync_channels"`
	MaxAgeDays    int        `json:"max_age_days"`
}

// ResponsePayload carries the matched records, one list per category. Mail is
// present on the wire but always empty; private messages never sync.
type ResponsePayload struct {
	Bulletins []*models.Bulletin `json:"bulletins"`
	Channels  []*models.Channel  `json:"channels"`
	Mail      []struct{}         `json:"mail"`
}

// AckPayload closes an exchange, reporting how reconciliation went.
type AckPayload struct {
	Success   bool      `json:"success"`
	Conflicts int       `json:"conflicts"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncID returns the correlation token for a new message, derived from a
// hash of the current time. Collisions are possible in principle but
// operationally negligible at mesh bandwidth.
func NewSyncID() string {
	sum := md5.Sum([]byte(strconv.FormatInt(time.Now().UnixNano(), 10)))
	return hex.EncodeToString(sum[:])[:8]
}
