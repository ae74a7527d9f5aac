package mail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

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

const mailColumns = `id, sender_id, sender_name, recipient_id, subject, content, timestamp, read`

func (r *SQLiteRepository) Create(ctx context.Context, m *models.MailMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mail (id, sender_id, sender_name, recipient_id, subject, content, timestamp, read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.SenderName, m.RecipientID, m.Subject, m.Content, m.Timestamp.Unix(), m.Read)
	if err != nil {
		return fmt.Errorf("failed to insert mail: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.MailMessage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mailColumns+` FROM mail WHERE id = ?`, id)

	var m models.MailMessage
	var ts int64
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Subject, &m.Content, &ts, &m.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mail: %w", err)
	}
	m.Timestamp = time.Unix(ts, 0).UTC()
	return &m, nil
}

func (r *SQLiteRepository) ListForRecipient(ctx context.Context, nodeID string) ([]*models.MailMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mailColumns+` FROM mail WHERE recipient_id = ? ORDER BY timestamp DESC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select mail: %w", err)
	}
	defer rows.Close()

	var result []*models.MailMessage
	for rows.Next() {
		var m models.MailMessage
		var ts int64
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Subject, &m.Content, &ts, &m.Read); err != nil {
			return nil, err
		}
		m.Timestamp = time.Unix(ts, 0).UTC()
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE mail SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark mail read: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mail WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mail: %w", err)
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

func (r *SQLiteRepository) CountUnread(ctx context.Context, nodeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mail WHERE recipient_id = ? AND read = 0`, nodeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count mail: %w", err)
	}
	return n, nil
}
