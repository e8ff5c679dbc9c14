package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"reelvault/pkg/models"
)

// ReconcileVideoTags moves the video's tag associations to exactly the
// desired title set inside one transaction. Associations that survive
// keep their added_at stamp; tags are created lazily and never deleted.
func (s *Store) ReconcileVideoTags(ctx context.Context, videoID string, titles []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos WHERE id = ?", videoID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return reconcileVideoTags(ctx, tx, videoID, titles, time.Now().UTC())
	})
}

// reconcileVideoTags computes the symmetric difference between the
// current association set and the desired titles: ids already associated
// are kept, missing ones inserted, leftovers deleted.
func reconcileVideoTags(ctx context.Context, tx *sql.Tx, videoID string, titles []string, now time.Time) error {
	rows, err := tx.QueryContext(ctx, `SELECT tag_id FROM video_tags WHERE video_id = ?`, videoID)
	if err != nil {
		return err
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return err
		}
		existing[tagID] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var toInsert []string
	for _, title := range titles {
		tag, err := getOrCreateTag(ctx, tx, title, now)
		if err != nil {
			return err
		}
		if existing[tag.ID] {
			delete(existing, tag.ID)
		} else {
			toInsert = append(toInsert, tag.ID)
		}
	}

	for _, tagID := range toInsert {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO video_tags (video_id, tag_id, added_at)
			VALUES (?, ?, ?)
			ON CONFLICT(video_id, tag_id) DO NOTHING`,
			videoID, tagID, now)
		if err != nil {
			return err
		}
	}

	for tagID := range existing {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM video_tags WHERE video_id = ? AND tag_id = ?`,
			videoID, tagID)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetOrCreateTag returns the tag with the given title, creating it when
// absent. The unique index on title carries creation races: the insert
// is an INSERT OR IGNORE and the id is read back afterwards, so the
// call is idempotent and returns the same id across calls.
func (s *Store) GetOrCreateTag(ctx context.Context, title string) (*models.Tag, error) {
	var tag *models.Tag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		tag, err = getOrCreateTag(ctx, tx, title, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func getOrCreateTag(ctx context.Context, tx *sql.Tx, title string, now time.Time) (*models.Tag, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tags (id, title, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(title) DO NOTHING`,
		uuid.New().String(), title, now)
	if err != nil {
		return nil, err
	}

	var tag models.Tag
	err = tx.QueryRowContext(ctx, `SELECT id, title, created_at FROM tags WHERE title = ?`, title).
		Scan(&tag.ID, &tag.Title, &tag.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTagsForVideo returns the tags associated with the video, ordered by
// title.
func (s *Store) GetTagsForVideo(ctx context.Context, videoID string) ([]models.Tag, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.created_at
		FROM tags t
		JOIN video_tags vt ON vt.tag_id = t.id
		WHERE vt.video_id = ?
		ORDER BY t.title COLLATE NOCASE`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTagRows(rows)
}

// ListTags returns all tags ordered by title. Orphaned tags (no video
// referencing them) are included; they are never auto-deleted.
func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, created_at FROM tags ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTagRows(rows)
}

func scanTagRows(rows *sql.Rows) ([]models.Tag, error) {
	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
