package database

import (
	"context"
	"database/sql"
	"time"

	"reelvault/pkg/models"
)

const videoColumns = `id, title, description, video_path, thumb_path, is_favorite,
	orientation, duration, width, height, frame_rate, codec, has_audio, created_at, updated_at`

// VideoUpdates describes a partial update of a video row. Nil fields are
// left untouched. TagTitles of nil leaves tag associations alone; an
// empty slice removes them all.
type VideoUpdates struct {
	Title       *string
	Description *string
	Orientation *string
	ThumbPath   *string
	TagTitles   []string
}

// InsertVideo persists a new video row.
func (s *Store) InsertVideo(ctx context.Context, v *models.Video) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO videos (id, title, description, video_path, thumb_path, is_favorite,
			orientation, duration, width, height, frame_rate, codec, has_audio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Description, v.VideoPath, v.ThumbPath, v.IsFavorite,
		v.Orientation, v.Duration, v.Width, v.Height, v.FrameRate, v.Codec, v.HasAudio,
		v.CreatedAt, v.UpdatedAt)
	if err != nil {
		s.logger.WithError(err).WithField("video_id", v.ID).Error("Failed to insert video")
	}
	return err
}

// GetVideo returns a single video by its ID.
func (s *Store) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	return getVideo(ctx, s.conn, id)
}

func getVideo(ctx context.Context, q querier, id string) (*models.Video, error) {
	row := q.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)

	var v models.Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.VideoPath, &v.ThumbPath, &v.IsFavorite,
		&v.Orientation, &v.Duration, &v.Width, &v.Height, &v.FrameRate, &v.Codec, &v.HasAudio,
		&v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVideos returns all videos ordered by the given sort key ("date" or
// "title") and order ("asc" or "desc"). Unknown values fall back to
// newest-first.
func (s *Store) ListVideos(ctx context.Context, sortKey, sortOrder string) ([]models.Video, error) {
	orderBy := "created_at DESC"
	switch {
	case sortKey == "title" && sortOrder == "asc":
		orderBy = "title COLLATE NOCASE ASC"
	case sortKey == "title" && sortOrder == "desc":
		orderBy = "title COLLATE NOCASE DESC"
	case sortKey == "date" && sortOrder == "asc":
		orderBy = "created_at ASC"
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideoRows(rows)
}

// ListFavoriteVideos returns favorited videos, newest first.
func (s *Store) ListFavoriteVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE is_favorite = TRUE
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideoRows(rows)
}

// SearchVideos performs a simple LIKE-based search over title and
// description.
func (s *Store) SearchVideos(ctx context.Context, query string) ([]models.Video, error) {
	searchQuery := "%" + query + "%"
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE title LIKE ? OR description LIKE ?
		ORDER BY title COLLATE NOCASE`, searchQuery, searchQuery)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Error("Failed to search videos")
		return nil, err
	}
	defer rows.Close()
	return scanVideoRows(rows)
}

// UpdateVideo applies a partial update and, when TagTitles is non-nil,
// reconciles tag associations in the same transaction. It returns the
// updated video.
func (s *Store) UpdateVideo(ctx context.Context, id string, upd VideoUpdates) (*models.Video, error) {
	var updated *models.Video
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		setClauses := "updated_at = ?"
		args := []interface{}{now}
		if upd.Title != nil {
			setClauses += ", title = ?"
			args = append(args, *upd.Title)
		}
		if upd.Description != nil {
			setClauses += ", description = ?"
			args = append(args, *upd.Description)
		}
		if upd.Orientation != nil {
			setClauses += ", orientation = ?"
			args = append(args, *upd.Orientation)
		}
		if upd.ThumbPath != nil {
			setClauses += ", thumb_path = ?"
			args = append(args, *upd.ThumbPath)
		}
		args = append(args, id)

		result, err := tx.ExecContext(ctx, `UPDATE videos SET `+setClauses+` WHERE id = ?`, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}

		if upd.TagTitles != nil {
			if err := reconcileVideoTags(ctx, tx, id, upd.TagTitles, now); err != nil {
				return err
			}
		}

		updated, err = getVideo(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetVideoFavorite sets the favorite flag. Last write wins; concurrent
// toggles are not serialized beyond the storage transaction.
func (s *Store) SetVideoFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := s.conn.ExecContext(ctx, `
		UPDATE videos SET is_favorite = ?, updated_at = ? WHERE id = ?`,
		favorite, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVideo removes the video row. Membership and tag association rows
// cascade via foreign keys.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		s.logger.WithError(err).WithField("video_id", id).Error("Failed to delete video")
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountVideos returns the total number of videos in the library.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count)
	return count, err
}

// scanVideoRows scans standard video result sets into a slice. Callers
// must have already deferred rows.Close().
func scanVideoRows(rows *sql.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.VideoPath, &v.ThumbPath, &v.IsFavorite,
			&v.Orientation, &v.Duration, &v.Width, &v.Height, &v.FrameRate, &v.Codec, &v.HasAudio,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
