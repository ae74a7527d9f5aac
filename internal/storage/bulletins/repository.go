// Package bulletins provides the sqlite-backed repository for BBS board
// posts, including the fingerprint lookup the sync engine de-duplicates
// against.
package bulletins

import (
	"context"
	"time"

	"meshbbs/internal/models"
)

// Repository describes bulletin persistence.
type Repository interface {
	// Create inserts a bulletin and fills in its assigned ID. The caller is
	// responsible for Timestamp and UniqueID so that records received from
	// peers keep their original attribution.
	Create(ctx context.Context, b *models.Bulletin) error

	// GetByID returns one bulletin or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Bulletin, error)

	// GetByUniqueID returns the bulletin with the given content fingerprint
	// or common.ErrNotFound.
	GetByUniqueID(ctx context.Context, uniqueID string) (*models.Bulletin, error)

	// Search returns bulletins whose subject or content contains term.
	Search(ctx context.Context, term string) ([]*models.Bulletin, error)

	// GetAll lists the most recent bulletins, newest first. limit <= 0 means
	// no limit.
	GetAll(ctx context.Context, limit int) ([]*models.Bulletin, error)

	// GetSince lists bulletins strictly newer than t, oldest first.
	GetSince(ctx context.Context, t time.Time) ([]*models.Bulletin, error)

	// ListByBoard lists bulletins on one board, newest first.
	ListByBoard(ctx context.Context, board string, limit int) ([]*models.Bulletin, error)

	// MarkRead records that nodeID has read the bulletin.
	MarkRead(ctx context.Context, id int64, nodeID string) error

	// Count returns the total number of stored bulletins.
	Count(ctx context.Context) (int, error)
}
