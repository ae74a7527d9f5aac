// Package mail provides the sqlite-backed repository for private messages.
package mail

import (
	"context"

	"meshbbs/internal/models"
)

// Repository describes mail persistence.
type Repository interface {
	// Create inserts a message. A missing ID is filled with a fresh uuid.
	Create(ctx context.Context, m *models.MailMessage) error

	// GetByID returns one message or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.MailMessage, error)

	// ListForRecipient lists messages addressed to nodeID, newest first.
	ListForRecipient(ctx context.Context, nodeID string) ([]*models.MailMessage, error)

	// MarkRead flags a message as read.
	MarkRead(ctx context.Context, id string) error

	// Delete removes a message. Returns common.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// CountUnread returns the number of unread messages for nodeID.
	CountUnread(ctx context.Context, nodeID string) (int, error)
}
