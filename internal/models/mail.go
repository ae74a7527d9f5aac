package models

import "time"

// MailMessage is a private message between two mesh users. Mail never leaves
// the local store during peer sync.
type MailMessage struct {
	ID          string
	SenderID    string
	SenderName  string
	RecipientID string
	Subject     string
	Content     string
	Timestamp   time.Time
	Read        bool
}
