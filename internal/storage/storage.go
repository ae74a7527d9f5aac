// Package storage opens the gateway's sqlite database, applies embedded
// goose migrations, and bundles the per-entity repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"meshbbs/internal/dbx"
	"meshbbs/internal/storage/bulletins"
	"meshbbs/internal/storage/channels"
	"meshbbs/internal/storage/mail"
	"meshbbs/internal/storage/migrations"
)

// Store bundles the repositories backed by one database handle.
type Store struct {
	Bulletins bulletins.Repository
	Channels  channels.Repository
	Mail      mail.Repository

	db *sql.DB
}

// RunMigrations applies all embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite database at dsn, migrates it,
// and returns the repository bundle.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite is happiest with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	s := &Store{
		Channels: channels.NewSQLiteRepository(db),
		Mail:     mail.NewSQLiteRepository(db),
		db:       db,
	}
	s.Bulletins = &txBulletins{Repository: bulletins.NewSQLiteRepository(db), db: db}
	return s, nil
}

// txBulletins wraps the bulletin repository so read-modify-write operations
// run inside a transaction.
type txBulletins struct {
	bulletins.Repository
	db *sql.DB
}

func (t *txBulletins) MarkRead(ctx context.Context, id int64, nodeID string) error {
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return bulletins.NewSQLiteRepository(tx).MarkRead(ctx, id, nodeID)
	})
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
