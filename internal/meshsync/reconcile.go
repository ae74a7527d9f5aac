package meshsync

import (
	"context"
	"errors"
	"fmt"

	"meshbbs/internal/common"
	"meshbbs/internal/models"
	"meshbbs/internal/storage/channels"
)

// reconcileBulletins folds incoming bulletins into the local store. Identity
// is the content fingerprint. Unknown fingerprints are created verbatim,
// keeping the remote attribution. Known ones never mutate: bulletins are
// treated as append-only, so a newer incoming copy is logged and dropped
// while an older/equal one counts as an unresolved conflict.
func (e *Engine) reconcileBulletins(ctx context.Context, from string, incoming []*models.Bulletin) []string {
	var conflicts []string

	for _, in := range incoming {
		if in == nil || in.UniqueID == "" {
			continue
		}

		existing, err := e.store.BulletinByUniqueID(ctx, in.UniqueID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			fresh := *in
			fresh.ID = 0
			if err := e.store.CreateBulletin(ctx, &fresh); err != nil {
				e.logger.Warn(ctx, "failed to store synced bulletin", "peer", from, "subject", in.Subject, "error", err)
				continue
			}
			e.logger.Debug(ctx, "bulletin imported", "peer", from, "subject", in.Subject)

		case err != nil:
			e.logger.Warn(ctx, "bulletin lookup failed", "peer", from, "unique_id", in.UniqueID, "error", err)

		default:
			if in.Timestamp.After(existing.Timestamp) {
				// Same fingerprint, newer timestamp. Bulletins stay
				// append-only, so note it and keep the local row.
				e.logger.Info(ctx, "newer copy of known bulletin ignored", "peer", from, "subject", in.Subject)
			} else {
				conflicts = append(conflicts,
					fmt.Sprintf("bulletin %q from %s is not newer than the local copy", in.Subject, from))
			}
		}
	}
	return conflicts
}

// reconcileChannels folds incoming channel directory entries into the local
// store. Identity is (name case-insensitive, frequency exact). Matches
// resolve timestamp-wins: a strictly newer incoming record overwrites the
// mutable fields in place and is not a conflict; anything else is recorded
// as unresolved and changes nothing.
func (e *Engine) reconcileChannels(ctx context.Context, from string, incoming []*models.Channel) []string {
	var conflicts []string

	for _, in := range incoming {
		if in == nil || in.Name == "" {
			continue
		}

		existing, err := e.store.ChannelByNameFreq(ctx, in.Name, in.Frequency)
		switch {
		case errors.Is(err, common.ErrNotFound):
			fresh := *in
			fresh.ID = 0
			if err := e.store.AddChannel(ctx, &fresh); err != nil {
				e.logger.Warn(ctx, "failed to store synced channel", "peer", from, "name", in.Name, "error", err)
				continue
			}
			e.logger.Debug(ctx, "channel imported", "peer", from, "name", in.Name)

		case err != nil:
			e.logger.Warn(ctx, "channel lookup failed", "peer", from, "name", in.Name, "error", err)

		default:
			if in.AddedAt.After(existing.AddedAt) {
				u := channels.Update{
					Description:  in.Description,
					Location:     in.Location,
					CoverageArea: in.CoverageArea,
					Tone:         in.Tone,
					Offset:       in.Offset,
				}
				if err := e.store.UpdateChannel(ctx, existing.ID, u, in.AddedAt); err != nil {
					e.logger.Warn(ctx, "failed to update synced channel", "peer", from, "name", in.Name, "error", err)
					continue
				}
				e.logger.Debug(ctx, "channel updated from newer copy", "peer", from, "name", in.Name)
			} else {
				conflicts = append(conflicts,
					fmt.Sprintf("channel %q (%s) from %s is not newer than the local copy", in.Name, in.Frequency, from))
			}
		}
	}
	return conflicts
}
