// Package tags implements the tag association service: reconciling a
// video's tag set against free-text titles.
package tags

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/vaulterr"
	"reelvault/pkg/models"
)

// Service reconciles tag associations. Tags are created lazily on first
// use and never deleted, even when nothing references them.
type Service struct {
	store    *database.Store
	notifier live.Notifier
	logger   *logrus.Logger
}

// NewService wires the tag service.
func NewService(store *database.Store, notifier live.Notifier, logger *logrus.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Reconcile moves the video's tag associations to exactly the desired
// title set. Titles are trimmed and deduplicated first; blank titles are
// dropped. Associations for surviving tags are left untouched, so their
// creation stamps are preserved. The call is idempotent.
func (s *Service) Reconcile(ctx context.Context, videoID string, desiredTitles []string) error {
	titles := NormalizeTitles(desiredTitles)

	err := s.store.ReconcileVideoTags(ctx, videoID, titles)
	if err == database.ErrNotFound {
		return vaulterr.New(vaulterr.KindNotFound, "video not found")
	}
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to update tags", err)
	}

	s.notifier.Publish(live.TableTags, live.TableVideoTags)
	return nil
}

// GetOrCreate returns the tag for title, creating it when absent. The
// same title always yields the same id.
func (s *Service) GetOrCreate(ctx context.Context, title string) (*models.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, vaulterr.New(vaulterr.KindInvalid, "tag title cannot be empty")
	}

	tag, err := s.store.GetOrCreateTag(ctx, title)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to create tag", err)
	}
	return tag, nil
}

// ForVideo returns the tags associated with the video.
func (s *Service) ForVideo(ctx context.Context, videoID string) ([]models.Tag, error) {
	found, err := s.store.GetTagsForVideo(ctx, videoID)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to load tags", err)
	}
	return found, nil
}

// List returns all tags, orphaned ones included.
func (s *Service) List(ctx context.Context) ([]models.Tag, error) {
	found, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindStorage, "failed to list tags", err)
	}
	return found, nil
}

// NormalizeTitles trims whitespace, drops blanks and removes duplicates
// while preserving first-seen order. The UI sends comma-separated free
// text, so this is the single place raw titles get cleaned up.
func NormalizeTitles(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	titles := make([]string, 0, len(raw))
	for _, title := range raw {
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// SplitTitles splits a comma-separated tag string the way the edit form
// submits it, then normalizes the parts.
func SplitTitles(raw string) []string {
	return NormalizeTitles(strings.Split(raw, ","))
}
