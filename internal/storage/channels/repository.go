// Package channels provides the sqlite-backed repository for the shared
// radio channel directory.
package channels

import (
	"context"
	"time"

	"meshbbs/internal/models"
)

// Update names the mutable channel fields conflict resolution is allowed to
// overwrite.
type Update struct {
	Description  string
	Location     string
	CoverageArea string
	Tone         string
	Offset       string
}

// Repository describes channel directory persistence.
type Repository interface {
	// Add inserts a channel and fills in its assigned ID. The caller sets
	// AddedAt so records received from peers keep their original timestamp.
	Add(ctx context.Context, c *models.Channel) error

	// GetByID returns one channel or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Channel, error)

	// UpdateDetails overwrites the mutable fields of a channel. Returns
	// common.ErrNotFound if no such row exists. newAddedAt replaces the
	// record's timestamp so a later sync sees the winning version.
	UpdateDetails(ctx context.Context, id int64, u Update, newAddedAt time.Time) error

	// FindByNameFreq matches a channel by case-insensitive name and exact
	// frequency, the identity predicate used during reconciliation.
	FindByNameFreq(ctx context.Context, name, frequency string) (*models.Channel, error)

	// Search returns channels whose name, description or location contains term.
	Search(ctx context.Context, term string) ([]*models.Channel, error)

	// GetAll lists channels ordered by name. activeOnly filters to active rows.
	GetAll(ctx context.Context, activeOnly bool) ([]*models.Channel, error)

	// GetSince lists channels added strictly after t, oldest first.
	GetSince(ctx context.Context, t time.Time) ([]*models.Channel, error)

	// Count returns the total number of stored channels.
	Count(ctx context.Context) (int, error)
}
