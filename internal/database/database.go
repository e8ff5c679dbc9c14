package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Sentinel errors returned by store methods. Services translate these
// into user-facing error kinds.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateTitle = errors.New("title already exists")
)

// Store wraps a *sql.DB providing higher-level helper methods for the
// application's persistent state. It is safe for concurrent use because
// the underlying *sql.DB is concurrency-safe.
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers can be
// shared between direct calls and transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// New opens (or creates) a SQLite database at the provided path and
// ensures all required tables and indices exist. It also applies
// lightweight performance-oriented pragmas (WAL, cache sizing). Caller
// should Close() it when finished.
func New(dbPath string, logger *logrus.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA auto_vacuum=INCREMENTAL;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Database initialized successfully")
	return s, nil
}

// createTables creates tables and indices if they do not already exist.
// This is idempotent and safe to call multiple times.
func (s *Store) createTables() error {
	videosTable := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT 'Untitled',
		description TEXT NOT NULL DEFAULT '',
		video_path TEXT NOT NULL,
		thumb_path TEXT NOT NULL,
		is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
		orientation TEXT NOT NULL DEFAULT 'landscape',
		duration REAL NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		frame_rate REAL NOT NULL DEFAULT 0,
		codec TEXT NOT NULL DEFAULT '',
		has_audio BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	playlistVideosTable := `
	CREATE TABLE IF NOT EXISTS playlist_videos (
		playlist_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		added_at DATETIME NOT NULL,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, video_id)
	);`

	tagsTable := `
	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	);`

	videoTagsTable := `
	CREATE TABLE IF NOT EXISTS video_tags (
		video_id TEXT NOT NULL,
		tag_id TEXT NOT NULL,
		added_at DATETIME NOT NULL,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (video_id, tag_id)
	);`

	settingsTable := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at);",
		"CREATE INDEX IF NOT EXISTS idx_videos_title ON videos(title);",
		"CREATE INDEX IF NOT EXISTS idx_videos_favorite ON videos(is_favorite);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_videos_playlist ON playlist_videos(playlist_id);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_videos_position ON playlist_videos(playlist_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_video_tags_video ON video_tags(video_id);",
		"CREATE INDEX IF NOT EXISTS idx_video_tags_tag ON video_tags(tag_id);",
	}

	tables := []string{videosTable, playlistsTable, playlistVideosTable, tagsTable, videoTagsTable, settingsTable}
	for _, table := range tables {
		if _, err := s.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := s.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// withTx runs fn inside a transaction, rolling back on any error. The
// commit completes before withTx returns, so readers observing after a
// successful call always see the full mutation.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
