package models

import "time"

// Peer is a remote BBS node this instance may synchronize with. Peers live
// only in process memory; a restart relies on re-discovery.
type Peer struct {
	NodeID string
	Name   string

	SyncEnabled    bool
	Priority       int
	SyncBulletins  bool
	SyncMail       bool
	SyncChannels   bool
	MaxSyncAgeDays int

	// LastSync is nil until the first completed exchange.
	LastSync *time.Time
}

// NewPeer returns a peer with the default preferences applied to
// auto-discovered nodes.
func NewPeer(nodeID, name string) *Peer {
	if name == "" {
		name = defaultPeerName(nodeID)
	}
	return &Peer{
		NodeID:         nodeID,
		Name:           name,
		SyncEnabled:    true,
		Priority:       1,
		SyncBulletins:  true,
		SyncMail:       false,
		SyncChannels:   true,
		MaxSyncAgeDays: 7,
	}
}

// defaultPeerName synthesizes a display name from the trailing characters of
// a node id like "!a1b2c3d4".
func defaultPeerName(nodeID string) string {
	if len(nodeID) <= 4 {
		return "Node " + nodeID
	}
	return "Node " + nodeID[len(nodeID)-4:]
}
