// Package library implements the video library service: importing files
// into managed storage, editing records, favorites and deletion.
package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/media"
	"reelvault/internal/vaulterr"
	"reelvault/pkg/models"
)

// Service owns video records and their files. The vault directory is
// the only place managed video and thumbnail files live; nothing else
// references them.
type Service struct {
	store       *database.Store
	prober      media.Prober
	thumbnailer media.Thumbnailer
	notifier    live.Notifier
	logger      *logrus.Logger
	videosDir   string
	thumbOffset time.Duration
}

// NewService wires the library service with its collaborators.
func NewService(store *database.Store, prober media.Prober, thumbnailer media.Thumbnailer,
	notifier live.Notifier, logger *logrus.Logger, videosDir string, thumbOffset time.Duration) *Service {
	return &Service{
		store:       store,
		prober:      prober,
		thumbnailer: thumbnailer,
		notifier:    notifier,
		logger:      logger,
		videosDir:   videosDir,
		thumbOffset: thumbOffset,
	}
}

// ImportRequest describes one file to import. Title defaults to the
// source filename without extension; ThumbnailOffset of zero uses the
// service default.
type ImportRequest struct {
	SourcePath      string
	Title           string
	ThumbnailOffset time.Duration
}

// ImportResult reports the outcome for one file of a batch.
type ImportResult struct {
	SourcePath string        `json:"sourcePath"`
	Video      *models.Video `json:"video,omitempty"`
	Err        error         `json:"-"`
}

// Import brings the given files into managed storage. Files import
// independently: one failure does not abort the batch, and the result
// slice matches the request order.
func (s *Service) Import(ctx context.Context, requests []ImportRequest) []ImportResult {
	results := make([]ImportResult, len(requests))
	for i, req := range requests {
		video, err := s.importOne(ctx, req)
		results[i] = ImportResult{SourcePath: req.SourcePath, Video: video, Err: err}
		if err != nil {
			s.logger.WithError(err).WithField("source_path", req.SourcePath).Error("Failed to import video")
		}
	}
	return results
}

// importOne copies the file into the vault, extracts a thumbnail and
// probes metadata, then persists the record. The row is only created
// after both the copy and the thumbnail succeed; a probe failure is
// tolerated and leaves zeroed metadata.
func (s *Service) importOne(ctx context.Context, req ImportRequest) (*models.Video, error) {
	if err := os.MkdirAll(s.videosDir, 0755); err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to prepare videos directory", err)
	}

	title := req.Title
	if title == "" {
		title = DeriveTitle(req.SourcePath)
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(req.SourcePath))
	videoPath := filepath.Join(s.videosDir, id+ext)
	thumbPath := filepath.Join(s.videosDir, id+".jpg")

	if err := copyFile(req.SourcePath, videoPath); err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to copy video into storage", err)
	}

	offset := req.ThumbnailOffset
	if offset == 0 {
		offset = s.thumbOffset
	}
	if err := s.thumbnailer.ExtractThumbnail(ctx, videoPath, thumbPath, offset); err != nil {
		os.Remove(videoPath)
		return nil, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to generate thumbnail", err)
	}

	info, err := s.prober.Probe(ctx, videoPath)
	if err != nil {
		s.logger.WithError(err).WithField("video_path", videoPath).Warn("Failed to probe metadata, importing without it")
		info = media.Info{Orientation: models.OrientationLandscape}
	}

	now := time.Now().UTC()
	video := &models.Video{
		ID:          id,
		Title:       title,
		VideoPath:   videoPath,
		ThumbPath:   thumbPath,
		Orientation: info.Orientation,
		Duration:    info.Duration,
		Width:       info.Width,
		Height:      info.Height,
		FrameRate:   info.FrameRate,
		Codec:       info.Codec,
		HasAudio:    info.HasAudio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertVideo(ctx, video); err != nil {
		os.Remove(videoPath)
		os.Remove(thumbPath)
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to save video", err)
	}

	s.notifier.Publish(live.TableVideos)
	s.logger.WithFields(logrus.Fields{
		"video_id": id,
		"title":    title,
	}).Info("Imported video")
	return video, nil
}

// Get returns a single video.
func (s *Service) Get(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.store.GetVideo(ctx, id)
	if err == database.ErrNotFound {
		return nil, vaulterr.New(vaulterr.KindNotFound, "video not found")
	}
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to load video", err)
	}
	return video, nil
}

// List returns all videos ordered by sortKey ("date" or "title") and
// sortOrder ("asc" or "desc").
func (s *Service) List(ctx context.Context, sortKey, sortOrder string) ([]models.Video, error) {
	videos, err := s.store.ListVideos(ctx, sortKey, sortOrder)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to list videos", err)
	}
	return videos, nil
}

// ListFavorites returns favorited videos, newest first.
func (s *Service) ListFavorites(ctx context.Context) ([]models.Video, error) {
	videos, err := s.store.ListFavoriteVideos(ctx)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to list favorites", err)
	}
	return videos, nil
}

// Search returns videos whose title or description matches the query.
func (s *Service) Search(ctx context.Context, query string) ([]models.Video, error) {
	videos, err := s.store.SearchVideos(ctx, query)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to search videos", err)
	}
	return videos, nil
}

// ToggleFavorite flips the favorite flag and returns the new state with
// a human-readable message. Concurrent toggles are last-write-wins.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, string, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return false, "", err
	}

	favorite := !video.IsFavorite
	if err := s.store.SetVideoFavorite(ctx, id, favorite); err != nil {
		if err == database.ErrNotFound {
			return false, "", vaulterr.New(vaulterr.KindNotFound, "video not found")
		}
		return false, "", vaulterr.Wrap(vaulterr.KindStorage, "failed to toggle favorite", err)
	}
	s.notifier.Publish(live.TableVideos)

	verb := "unfavorited"
	if favorite {
		verb = "favorited"
	}
	return favorite, fmt.Sprintf("Video %s has been %s.", video.Title, verb), nil
}

// Update applies a partial field update, stamping updated_at. When tag
// titles are supplied they are reconciled in the same transaction.
func (s *Service) Update(ctx context.Context, id string, upd database.VideoUpdates) (*models.Video, error) {
	video, err := s.store.UpdateVideo(ctx, id, upd)
	if err == database.ErrNotFound {
		return nil, vaulterr.New(vaulterr.KindNotFound, "video not found")
	}
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to update video", err)
	}

	tables := []string{live.TableVideos}
	if upd.TagTitles != nil {
		tables = append(tables, live.TableTags, live.TableVideoTags)
	}
	s.notifier.Publish(tables...)
	return video, nil
}

// Delete removes the owned video and thumbnail files (best-effort,
// idempotent) and then the database row. A file that cannot be removed
// is logged and does not block record deletion.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	s.removeFileIfExists(video.VideoPath)
	s.removeFileIfExists(video.ThumbPath)

	if err := s.store.DeleteVideo(ctx, id); err != nil {
		if err == database.ErrNotFound {
			return "", vaulterr.New(vaulterr.KindNotFound, "video not found")
		}
		return "", vaulterr.Wrap(vaulterr.KindStorage, "failed to delete video", err)
	}

	s.notifier.Publish(live.TableVideos, live.TablePlaylistVideos, live.TableVideoTags)
	s.logger.WithField("video_id", id).Info("Deleted video")
	return fmt.Sprintf("Video %s successfully deleted.", video.Title), nil
}

// removeFileIfExists deletes path when present. Missing files are fine;
// other failures are logged and swallowed.
func (s *Service) removeFileIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to remove file, leaving orphan")
	}
}

// DeriveTitle turns a filename into a default title by stripping the
// directory and extension ("vacation.mp4" -> "vacation").
func DeriveTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// copyFile copies src to dst, removing a partial dst on failure.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
