// Package playlist implements playlist management: membership, dense
// per-playlist ordering and the reorder operation.
package playlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/vaulterr"
	"reelvault/pkg/models"
)

// Service manages playlists. Every mutation runs inside one store
// transaction; callers never observe a playlist with a partially
// applied membership or ordering change.
type Service struct {
	store    *database.Store
	notifier live.Notifier
	logger   *logrus.Logger
}

// NewService wires the playlist service.
func NewService(store *database.Store, notifier live.Notifier, logger *logrus.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Create inserts a playlist with the given ordered initial videos.
// Position equals the index in videoIDs.
func (s *Service) Create(ctx context.Context, title, description string, videoIDs []string) (*models.Playlist, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, "", vaulterr.New(vaulterr.KindInvalid, "playlist title is required")
	}

	now := time.Now().UTC()
	p := &models.Playlist{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		VideoCount:  len(videoIDs),
	}

	if err := s.store.CreatePlaylistWithVideos(ctx, p, videoIDs); err != nil {
		if err == database.ErrDuplicateTitle {
			return nil, "", vaulterr.New(vaulterr.KindInvalid, "Playlist title already exists.")
		}
		return nil, "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to create playlist.", err)
	}

	s.notifier.Publish(live.TablePlaylists, live.TablePlaylistVideos)
	s.logger.WithFields(logrus.Fields{
		"playlist_id": p.ID,
		"title":       title,
		"video_count": len(videoIDs),
	}).Info("Created playlist")
	return p, fmt.Sprintf("Playlist %s created successfully.", title), nil
}

// Update changes title/description and rewrites the full ordered
// membership list: videos absent from videoIDs are removed, the rest
// get position = index. Rewriting the whole list on every edit keeps
// positions dense even when only the order changed.
func (s *Service) Update(ctx context.Context, id, title, description string, videoIDs []string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", vaulterr.New(vaulterr.KindInvalid, "playlist title is required")
	}

	if err := s.store.UpdatePlaylistWithVideos(ctx, id, title, description, videoIDs); err != nil {
		switch err {
		case database.ErrNotFound:
			return "", vaulterr.New(vaulterr.KindNotFound, "playlist not found")
		case database.ErrDuplicateTitle:
			return "", vaulterr.New(vaulterr.KindInvalid, "Playlist title already exists.")
		}
		return "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to update playlist.", err)
	}

	s.notifier.Publish(live.TablePlaylists, live.TablePlaylistVideos)
	return fmt.Sprintf("Playlist %s updated successfully.", title), nil
}

// Delete removes the playlist; membership rows cascade and videos are
// never touched.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.store.DeletePlaylist(ctx, id); err != nil {
		if err == database.ErrNotFound {
			return "", vaulterr.New(vaulterr.KindNotFound, "playlist not found")
		}
		return "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to delete playlist.", err)
	}

	s.notifier.Publish(live.TablePlaylists, live.TablePlaylistVideos)
	return fmt.Sprintf("Playlist %s deleted successfully.", p.Title), nil
}

// Reorder applies a full permutation of the playlist's members: every
// video in orderedVideoIDs gets position = its index, atomically.
func (s *Service) Reorder(ctx context.Context, id string, orderedVideoIDs []string) error {
	if err := s.store.ReorderPlaylist(ctx, id, orderedVideoIDs); err != nil {
		if err == database.ErrNotFound {
			return vaulterr.New(vaulterr.KindNotFound, "playlist not found")
		}
		return vaulterr.Wrap(vaulterr.KindStorage, "Failed to update playlist order.", err)
	}

	s.notifier.Publish(live.TablePlaylistVideos)
	return nil
}

// ToggleVideo removes the video from the playlist when present,
// otherwise appends it at the end. It reports whether the video was
// added along with a message.
func (s *Service) ToggleVideo(ctx context.Context, playlistID, videoID string) (bool, string, error) {
	if _, err := s.Get(ctx, playlistID); err != nil {
		return false, "", err
	}

	added, err := s.store.TogglePlaylistVideo(ctx, playlistID, videoID)
	if err != nil {
		return false, "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to update playlist.", err)
	}

	s.notifier.Publish(live.TablePlaylistVideos)
	if added {
		return true, "Video added to playlist.", nil
	}
	return false, "Video removed from playlist.", nil
}

// RemoveVideo removes a single membership. Positions of the remaining
// members are not renormalized; relative order is unaffected.
func (s *Service) RemoveVideo(ctx context.Context, playlistID, videoID string) (string, error) {
	if err := s.store.RemovePlaylistVideo(ctx, playlistID, videoID); err != nil {
		if err == database.ErrNotFound {
			return "", vaulterr.New(vaulterr.KindNotFound, "video is not in this playlist")
		}
		return "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to remove video from playlist.", err)
	}

	s.notifier.Publish(live.TablePlaylistVideos)
	return "Video removed from playlist successfully.", nil
}

// RemoveVideoFromAllPlaylists removes every membership of the video,
// used by the "remove from everywhere" control.
func (s *Service) RemoveVideoFromAllPlaylists(ctx context.Context, videoID string) (string, error) {
	if err := s.store.RemoveVideoFromAllPlaylists(ctx, videoID); err != nil {
		return "", vaulterr.Wrap(vaulterr.KindStorage, "Failed to remove video from playlists.", err)
	}

	s.notifier.Publish(live.TablePlaylistVideos)
	return "Video removed from all playlists.", nil
}

// Get returns a playlist with its derived video count.
func (s *Service) Get(ctx context.Context, id string) (*models.Playlist, error) {
	p, err := s.store.GetPlaylist(ctx, id)
	if err == database.ErrNotFound {
		return nil, vaulterr.New(vaulterr.KindNotFound, "playlist not found")
	}
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to load playlist", err)
	}
	return p, nil
}

// List returns all playlists with video counts.
func (s *Service) List(ctx context.Context) ([]models.Playlist, error) {
	playlists, err := s.store.ListPlaylists(ctx)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to list playlists", err)
	}
	return playlists, nil
}

// GetVideos returns the playlist's videos in stored order.
func (s *Service) GetVideos(ctx context.Context, id string) ([]models.Video, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	videos, err := s.store.GetPlaylistVideos(ctx, id)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to load playlist videos", err)
	}
	return videos, nil
}

// ForVideo returns the playlists containing the video.
func (s *Service) ForVideo(ctx context.Context, videoID string) ([]models.Playlist, error) {
	playlists, err := s.store.GetPlaylistsForVideo(ctx, videoID)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to load playlists", err)
	}
	return playlists, nil
}
