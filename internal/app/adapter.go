package app

import (
	"context"
	"time"

	"meshbbs/internal/models"
	"meshbbs/internal/storage"
	"meshbbs/internal/storage/channels"
)

// storeAdapter narrows the repository bundle to the slice the sync engine
// consumes.
type storeAdapter struct {
	store *storage.Store
}

func (a *storeAdapter) CreateBulletin(ctx context.Context, b *models.Bulletin) error {
	return a.store.Bulletins.Create(ctx, b)
}

func (a *storeAdapter) BulletinByUniqueID(ctx context.Context, uniqueID string) (*models.Bulletin, error) {
	return a.store.Bulletins.GetByUniqueID(ctx, uniqueID)
}

func (a *storeAdapter) BulletinsSince(ctx context.Context, t time.Time) ([]*models.Bulletin, error) {
	return a.store.Bulletins.GetSince(ctx, t)
}

func (a *storeAdapter) AddChannel(ctx context.Context, c *models.Channel) error {
	return a.store.Channels.Add(ctx, c)
}

func (a *storeAdapter) UpdateChannel(ctx context.Context, id int64, u channels.Update, addedAt time.Time) error {
	return a.store.Channels.UpdateDetails(ctx, id, u, addedAt)
}

func (a *storeAdapter) ChannelByNameFreq(ctx context.Context, name, frequency string) (*models.Channel, error) {
	return a.store.Channels.FindByNameFreq(ctx, name, frequency)
}

func (a *storeAdapter) ChannelsSince(ctx context.Context, t time.Time) ([]*models.Channel, error) {
	return a.store.Channels.GetSince(ctx, t)
}
