package library

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/media"
	"reelvault/internal/vaulterr"
	"reelvault/pkg/models"
)

// fakeMedia stands in for ffprobe/ffmpeg in tests. The thumbnailer
// writes a real file so deletion paths can be exercised.
type fakeMedia struct {
	probeErr error
	thumbErr error
}

func (f *fakeMedia) Probe(ctx context.Context, path string) (media.Info, error) {
	if f.probeErr != nil {
		return media.Info{}, f.probeErr
	}
	return media.Info{
		Duration:    42.5,
		Width:       1920,
		Height:      1080,
		FrameRate:   30,
		Codec:       "h264",
		HasAudio:    true,
		Orientation: models.OrientationLandscape,
	}, nil
}

func (f *fakeMedia) ExtractThumbnail(ctx context.Context, videoPath, outPath string, offset time.Duration) error {
	if f.thumbErr != nil {
		return f.thumbErr
	}
	return os.WriteFile(outPath, []byte("jpeg"), 0644)
}

func newTestService(t *testing.T, fake *fakeMedia) (*Service, string) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()
	store, err := database.New(filepath.Join(dir, "test.db"), logger)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	videosDir := filepath.Join(dir, "videos")
	svc := NewService(store, fake, fake, live.NopNotifier{}, logger, videosDir, time.Second)
	return svc, dir
}

func writeSourceFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("video bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	return path
}

func TestImport(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "vacation.mp4")

	results := svc.Import(ctx, []ImportRequest{{SourcePath: source}})
	if len(results) != 1 {
		t.Fatalf("Import returned %d results, want 1", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("Import failed: %v", results[0].Err)
	}

	video := results[0].Video
	if video.Title != "vacation" {
		t.Errorf("Title = %q, want filename without extension", video.Title)
	}
	if video.Duration != 42.5 || video.Codec != "h264" || !video.HasAudio {
		t.Errorf("probed metadata not stored: %+v", video)
	}
	if video.VideoPath == video.ThumbPath {
		t.Error("video and thumbnail paths must differ")
	}
	if filepath.Ext(video.ThumbPath) != ".jpg" {
		t.Errorf("ThumbPath = %q, want .jpg", video.ThumbPath)
	}

	for _, path := range []string{video.VideoPath, video.ThumbPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("managed file %s missing: %v", path, err)
		}
	}

	// The source is untouched; callers decide what to do with it.
	if _, err := os.Stat(source); err != nil {
		t.Errorf("source file should remain: %v", err)
	}

	got, err := svc.Get(ctx, video.ID)
	if err != nil {
		t.Fatalf("Get after import failed: %v", err)
	}
	if got.Title != "vacation" {
		t.Errorf("persisted Title = %q", got.Title)
	}
}

func TestImportPartialFailure(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{})
	ctx := context.Background()

	good := writeSourceFile(t, dir, "good.mp4")
	missing := filepath.Join(dir, "missing.mp4")

	results := svc.Import(ctx, []ImportRequest{{SourcePath: good}, {SourcePath: missing}})
	if len(results) != 2 {
		t.Fatalf("Import returned %d results, want 2", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("good file failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("missing file should fail")
	}
	if results[1].SourcePath != missing {
		t.Errorf("results out of order: %q", results[1].SourcePath)
	}
}

func TestImportThumbnailFailureCleansUp(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{thumbErr: errors.New("no keyframe")})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "broken.mp4")

	results := svc.Import(ctx, []ImportRequest{{SourcePath: source}})
	if results[0].Err == nil {
		t.Fatal("import should fail when the thumbnail cannot be generated")
	}

	// The copied video must not be left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "videos"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("videos dir has %d leftover files, want 0", len(entries))
	}
}

func TestImportProbeFailureTolerated(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{probeErr: errors.New("unreadable")})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "mystery.mp4")

	results := svc.Import(ctx, []ImportRequest{{SourcePath: source}})
	if results[0].Err != nil {
		t.Fatalf("probe failure should not abort the import: %v", results[0].Err)
	}
	video := results[0].Video
	if video.Duration != 0 || video.Codec != "" {
		t.Errorf("metadata should be zeroed on probe failure: %+v", video)
	}
	if video.Orientation != models.OrientationLandscape {
		t.Errorf("Orientation = %q, want landscape default", video.Orientation)
	}
}

func TestToggleFavorite(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "clip.mp4")
	video := svc.Import(ctx, []ImportRequest{{SourcePath: source}})[0].Video

	favorite, message, err := svc.ToggleFavorite(ctx, video.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !favorite {
		t.Error("first toggle should favorite")
	}
	if message != "Video clip has been favorited." {
		t.Errorf("message = %q", message)
	}

	favorite, message, err = svc.ToggleFavorite(ctx, video.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if favorite {
		t.Error("second toggle should unfavorite")
	}
	if message != "Video clip has been unfavorited." {
		t.Errorf("message = %q", message)
	}

	if _, _, err := svc.ToggleFavorite(ctx, "no-such-id"); vaulterr.KindOf(err) != vaulterr.KindNotFound {
		t.Errorf("ToggleFavorite(missing) kind = %v, want KindNotFound", vaulterr.KindOf(err))
	}
}

func TestUpdate(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "clip.mp4")
	video := svc.Import(ctx, []ImportRequest{{SourcePath: source}})[0].Video

	title := "renamed"
	description := "now with a description"
	updated, err := svc.Update(ctx, video.ID, database.VideoUpdates{
		Title:       &title,
		Description: &description,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "renamed" || updated.Description != "now with a description" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.Update(ctx, "no-such-id", database.VideoUpdates{Title: &title}); vaulterr.KindOf(err) != vaulterr.KindNotFound {
		t.Errorf("Update(missing) kind = %v, want KindNotFound", vaulterr.KindOf(err))
	}
}

func TestDelete(t *testing.T) {
	svc, dir := newTestService(t, &fakeMedia{})
	ctx := context.Background()

	source := writeSourceFile(t, dir, "doomed.mp4")
	video := svc.Import(ctx, []ImportRequest{{SourcePath: source}})[0].Video

	message, err := svc.Delete(ctx, video.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if message != "Video doomed successfully deleted." {
		t.Errorf("message = %q", message)
	}

	for _, path := range []string{video.VideoPath, video.ThumbPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("managed file %s should be removed", path)
		}
	}
	if _, err := svc.Get(ctx, video.ID); vaulterr.KindOf(err) != vaulterr.KindNotFound {
		t.Errorf("Get(deleted) kind = %v, want KindNotFound", vaulterr.KindOf(err))
	}

	// Deleting again reports not found, not a filesystem error.
	if _, err := svc.Delete(ctx, video.ID); vaulterr.KindOf(err) != vaulterr.KindNotFound {
		t.Errorf("Delete(deleted) kind = %v, want KindNotFound", vaulterr.KindOf(err))
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/vacation.mp4", "vacation"},
		{"clip.MOV", "clip"},
		{"no-extension", "no-extension"},
		{"/a/b/archive.tar.mp4", "archive.tar"},
	}
	for _, tc := range tests {
		if got := DeriveTitle(tc.path); got != tc.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
