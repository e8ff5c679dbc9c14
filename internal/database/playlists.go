package database

import (
	"context"
	"database/sql"
	"time"

	"reelvault/pkg/models"
)

// CreatePlaylistWithVideos inserts a playlist row plus its membership
// rows with position = index in videoIDs, all in one transaction. A
// playlist row without its memberships is never observable.
func (s *Store) CreatePlaylistWithVideos(ctx context.Context, p *models.Playlist, videoIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO playlists (id, title, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTitle
			}
			return err
		}

		now := time.Now().UTC()
		for i, videoID := range videoIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
				VALUES (?, ?, ?, ?)`,
				p.ID, videoID, i, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdatePlaylistWithVideos updates the playlist scalar fields and
// rewrites the full ordered membership list: memberships absent from
// videoIDs are deleted, remaining and new ones get position = index.
// Surviving rows keep their added_at stamp.
func (s *Store) UpdatePlaylistWithVideos(ctx context.Context, id, title, description string, videoIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		result, err := tx.ExecContext(ctx, `
			UPDATE playlists SET title = ?, description = ?, updated_at = ?
			WHERE id = ?`, title, description, now, id)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTitle
			}
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}

		if err := deleteMembershipsNotIn(ctx, tx, id, videoIDs); err != nil {
			return err
		}

		for i, videoID := range videoIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(playlist_id, video_id) DO UPDATE SET position = excluded.position`,
				id, videoID, i, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// deleteMembershipsNotIn removes membership rows of the playlist whose
// video is not in keep.
func deleteMembershipsNotIn(ctx context.Context, tx *sql.Tx, playlistID string, keep []string) error {
	if len(keep) == 0 {
		_, err := tx.ExecContext(ctx, `DELETE FROM playlist_videos WHERE playlist_id = ?`, playlistID)
		return err
	}

	query := `DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id NOT IN (?`
	args := []interface{}{playlistID, keep[0]}
	for _, videoID := range keep[1:] {
		query += ", ?"
		args = append(args, videoID)
	}
	query += ")"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeletePlaylist deletes the playlist row; membership rows cascade.
// Videos themselves are never touched.
func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		s.logger.WithError(err).WithField("playlist_id", id).Error("Failed to delete playlist")
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

// ReorderPlaylist reassigns position = index for every video in
// orderedVideoIDs inside one transaction, so a reader never observes a
// partially applied permutation.
func (s *Store) ReorderPlaylist(ctx context.Context, id string, orderedVideoIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlists WHERE id = ?", id).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}

		for i, videoID := range orderedVideoIDs {
			_, err := tx.ExecContext(ctx, `
				UPDATE playlist_videos SET position = ?
				WHERE playlist_id = ? AND video_id = ?`,
				i, id, videoID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// TogglePlaylistVideo removes the pairing if it exists, otherwise
// appends the video at position MAX(position)+1. It reports whether the
// video ended up added.
func (s *Store) TogglePlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	var added bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`,
			playlistID, videoID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			added = false
			return nil
		}

		var maxPosition sql.NullInt64
		err = tx.QueryRowContext(ctx, `
			SELECT MAX(position) FROM playlist_videos WHERE playlist_id = ?`,
			playlistID).Scan(&maxPosition)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		position := 0
		if maxPosition.Valid {
			position = int(maxPosition.Int64) + 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
			VALUES (?, ?, ?, ?)`,
			playlistID, videoID, position, time.Now().UTC())
		if err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// RemovePlaylistVideo removes a single membership row. Remaining
// positions are intentionally not renormalized; ordering stays correct
// because relative order is preserved.
func (s *Store) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) error {
	result, err := s.conn.ExecContext(ctx, `
		DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`,
		playlistID, videoID)
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

// RemoveVideoFromAllPlaylists removes every membership row of the video.
func (s *Store) RemoveVideoFromAllPlaylists(ctx context.Context, videoID string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM playlist_videos WHERE video_id = ?`, videoID)
	return err
}

// GetPlaylist returns a single playlist with its derived video count.
func (s *Store) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.description, p.created_at, p.updated_at,
			   COALESCE(COUNT(pv.video_id), 0) as video_count
		FROM playlists p
		LEFT JOIN playlist_videos pv ON p.id = pv.playlist_id
		WHERE p.id = ?
		GROUP BY p.id, p.title, p.description, p.created_at, p.updated_at`, id)

	var p models.Playlist
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlaylists returns all playlists along with derived video counts,
// newest first.
func (s *Store) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.id, p.title, p.description, p.created_at, p.updated_at,
			   COALESCE(COUNT(pv.video_id), 0) as video_count
		FROM playlists p
		LEFT JOIN playlist_videos pv ON p.id = pv.playlist_id
		GROUP BY p.id, p.title, p.description, p.created_at, p.updated_at
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetPlaylistVideos returns the playlist's videos ordered by stored
// position.
func (s *Store) GetPlaylistVideos(ctx context.Context, playlistID string) ([]models.Video, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT v.id, v.title, v.description, v.video_path, v.thumb_path, v.is_favorite,
			v.orientation, v.duration, v.width, v.height, v.frame_rate, v.codec, v.has_audio,
			v.created_at, v.updated_at
		FROM videos v
		JOIN playlist_videos pv ON v.id = pv.video_id
		WHERE pv.playlist_id = ?
		ORDER BY pv.position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideoRows(rows)
}

// GetPlaylistMemberships returns raw membership rows for a playlist
// ordered by position.
func (s *Store) GetPlaylistMemberships(ctx context.Context, playlistID string) ([]models.PlaylistVideo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT playlist_id, video_id, position FROM playlist_videos
		WHERE playlist_id = ?
		ORDER BY position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []models.PlaylistVideo
	for rows.Next() {
		var pv models.PlaylistVideo
		if err := rows.Scan(&pv.PlaylistID, &pv.VideoID, &pv.Position); err != nil {
			return nil, err
		}
		memberships = append(memberships, pv)
	}
	return memberships, rows.Err()
}

// GetPlaylistsForVideo returns the playlists containing the video,
// newest first.
func (s *Store) GetPlaylistsForVideo(ctx context.Context, videoID string) ([]models.Playlist, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.id, p.title, p.description, p.created_at, p.updated_at, 0
		FROM playlists p
		JOIN playlist_videos pv ON p.id = pv.playlist_id
		WHERE pv.video_id = ?
		ORDER BY p.created_at DESC`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}
