// Package models holds the domain records the gateway stores and exchanges:
// bulletins, channel directory entries, mail, and sync peers. The JSON tags
// on syncable records define their wire dictionary shape.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Bulletin is a single post on one of the BBS boards.
type Bulletin struct {
	ID         int64     `json:"id"`
	Board      string    `json:"board"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	UniqueID   string    `json:"unique_id"`
	ReadBy     []string  `json:"read_by"`
}

// Fingerprint derives the content-addressed unique id used for
// de-duplication during sync. Two independently created bulletins share a
// fingerprint only if they were created from identical inputs at the same
// instant.
func Fingerprint(content, senderID string, ts time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%d", content, senderID, ts.Unix())))
	return hex.EncodeToString(sum[:])
}
