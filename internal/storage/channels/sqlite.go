package channels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meshbbs/internal/common"
	"meshbbs/internal/dbx"
	"meshbbs/internal/models"
)

// SQLiteRepository implements Repository over a dbx.DBTX
// (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const channelColumns = `id, name, frequency, description, channel_type, location, coverage_area, tone, "offset", added_by, added_at, verified, active`

func (r *SQLiteRepository) Add(ctx context.Context, c *models.Channel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO channels (name, frequency, description, channel_type, location, coverage_area, tone, "offset", added_by, added_at, verified, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Frequency, c.Description, c.ChannelType, c.Location, c.CoverageArea,
		c.Tone, c.Offset, c.AddedBy, c.AddedAt.Unix(), c.Verified, c.Active)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	return scanChannel(row)
}

func (r *SQLiteRepository) UpdateDetails(ctx context.Context, id int64, u Update, newAddedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE channels SET description = ?, location = ?, coverage_area = ?, tone = ?, "offset" = ?, added_at = ?
		 WHERE id = ?`,
		u.Description, u.Location, u.CoverageArea, u.Tone, u.Offset, newAddedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) FindByNameFreq(ctx context.Context, name, frequency string) (*models.Channel, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE name = ? COLLATE NOCASE AND frequency = ?`,
		name, frequency)
	return scanChannel(row)
}

func (r *SQLiteRepository) Search(ctx context.Context, term string) ([]*models.Channel, error) {
	pattern := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels
		 WHERE name LIKE ? OR description LIKE ? OR location LIKE ?
		 ORDER BY name COLLATE NOCASE`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search channels: %w", err)
	}
	return scanChannels(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, activeOnly bool) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select channels: %w", err)
	}
	return scanChannels(rows)
}

func (r *SQLiteRepository) GetSince(ctx context.Context, t time.Time) ([]*models.Channel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE added_at > ? ORDER BY added_at ASC`,
		t.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select channels: %w", err)
	}
	return scanChannels(rows)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count channels: %w", err)
	}
	return n, nil
}

func scanChannel(row *sql.Row) (*models.Channel, error) {
	var c models.Channel
	var addedAt int64
	err := row.Scan(&c.ID, &c.Name, &c.Frequency, &c.Description, &c.ChannelType,
		&c.Location, &c.CoverageArea, &c.Tone, &c.Offset, &c.AddedBy, &addedAt, &c.Verified, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}
	c.AddedAt = time.Unix(addedAt, 0).UTC()
	return &c, nil
}

func scanChannels(rows *sql.Rows) ([]*models.Channel, error) {
	defer rows.Close()

	var result []*models.Channel
	for rows.Next() {
		var c models.Channel
		var addedAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Frequency, &c.Description, &c.ChannelType,
			&c.Location, &c.CoverageArea, &c.Tone, &c.Offset, &c.AddedBy, &addedAt, &c.Verified, &c.Active); err != nil {
			return nil, err
		}
		c.AddedAt = time.Unix(addedAt, 0).UTC()
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
