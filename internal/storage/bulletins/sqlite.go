package bulletins

import (
	"context"
	"database/sql"
	"encoding/json"
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

const bulletinColumns = `id, board, sender_id, sender_name, subject, content, timestamp, unique_id, read_by`

func (r *SQLiteRepository) Create(ctx context.Context, b *models.Bulletin) error {
	readBy, err := json.Marshal(b.ReadBy)
	if err != nil {
		return fmt.Errorf("failed to marshal read_by: %w", err)
	}
	if b.ReadBy == nil {
		readBy = []byte("[]")
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bulletins (board, sender_id, sender_name, subject, content, timestamp, unique_id, read_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Board, b.SenderID, b.SenderName, b.Subject, b.Content, b.Timestamp.Unix(), b.UniqueID, string(readBy))
	if err != nil {
		return fmt.Errorf("failed to insert bulletin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	b.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Bulletin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bulletinColumns+` FROM bulletins WHERE id = ?`, id)
	return scanBulletin(row)
}

func (r *SQLiteRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*models.Bulletin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bulletinColumns+` FROM bulletins WHERE unique_id = ?`, uniqueID)
	return scanBulletin(row)
}

func (r *SQLiteRepository) Search(ctx context.Context, term string) ([]*models.Bulletin, error) {
	pattern := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bulletinColumns+` FROM bulletins
		 WHERE subject LIKE ? OR content LIKE ?
		 ORDER BY timestamp DESC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search bulletins: %w", err)
	}
	return scanBulletins(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, limit int) ([]*models.Bulletin, error) {
	query := `SELECT ` + bulletinColumns + ` FROM bulletins ORDER BY timestamp DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select bulletins: %w", err)
	}
	return scanBulletins(rows)
}

func (r *SQLiteRepository) GetSince(ctx context.Context, t time.Time) ([]*models.Bulletin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bulletinColumns+` FROM bulletins WHERE timestamp > ? ORDER BY timestamp ASC`,
		t.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select bulletins: %w", err)
	}
	return scanBulletins(rows)
}

func (r *SQLiteRepository) ListByBoard(ctx context.Context, board string, limit int) ([]*models.Bulletin, error) {
	query := `SELECT ` + bulletinColumns + ` FROM bulletins WHERE board = ? ORDER BY timestamp DESC`
	args := []any{board}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select bulletins: %w", err)
	}
	return scanBulletins(rows)
}

func (r *SQLiteRepository) MarkRead(ctx context.Context, id int64, nodeID string) error {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, reader := range b.ReadBy {
		if reader == nodeID {
			return nil
		}
	}
	readBy, err := json.Marshal(append(b.ReadBy, nodeID))
	if err != nil {
		return fmt.Errorf("failed to marshal read_by: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE bulletins SET read_by = ? WHERE id = ?`, string(readBy), id)
	if err != nil {
		return fmt.Errorf("failed to update read_by: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bulletins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bulletins: %w", err)
	}
	return n, nil
}

func scanBulletin(row *sql.Row) (*models.Bulletin, error) {
	var b models.Bulletin
	var ts int64
	var readBy string
	err := row.Scan(&b.ID, &b.Board, &b.SenderID, &b.SenderName, &b.Subject, &b.Content, &ts, &b.UniqueID, &readBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bulletin: %w", err)
	}
	b.Timestamp = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(readBy), &b.ReadBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal read_by: %w", err)
	}
	return &b, nil
}

func scanBulletins(rows *sql.Rows) ([]*models.Bulletin, error) {
	defer rows.Close()

	var result []*models.Bulletin
	for rows.Next() {
		var b models.Bulletin
		var ts int64
		var readBy string
		if err := rows.Scan(&b.ID, &b.Board, &b.SenderID, &b.SenderName, &b.Subject, &b.Content, &ts, &b.UniqueID, &readBy); err != nil {
			return nil, err
		}
		b.Timestamp = time.Unix(ts, 0).UTC()
		if err := json.Unmarshal([]byte(readBy), &b.ReadBy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal read_by: %w", err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
