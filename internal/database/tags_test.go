package database

import (
	"context"
	"testing"
)

func tagTitlesFor(t *testing.T, store *Store, videoID string) []string {
	t.Helper()
	found, err := store.GetTagsForVideo(context.Background(), videoID)
	if err != nil {
		t.Fatalf("GetTagsForVideo failed: %v", err)
	}
	titles := make([]string, len(found))
	for i, tag := range found {
		titles[i] = tag.Title
	}
	return titles
}

func TestGetOrCreateTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateTag(ctx, "travel")
	if err != nil {
		t.Fatalf("GetOrCreateTag failed: %v", err)
	}
	second, err := store.GetOrCreateTag(ctx, "travel")
	if err != nil {
		t.Fatalf("GetOrCreateTag(repeat) failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same title yielded different ids: %s vs %s", first.ID, second.ID)
	}

	all, err := store.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListTags = %d rows, want 1", len(all))
	}
}

func TestReconcileVideoTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v := mustInsertVideo(t, store, "tagged")

	if err := store.ReconcileVideoTags(ctx, v.ID, []string{"beach", "family"}); err != nil {
		t.Fatalf("ReconcileVideoTags failed: %v", err)
	}
	titles := tagTitlesFor(t, store, v.ID)
	if len(titles) != 2 || titles[0] != "beach" || titles[1] != "family" {
		t.Fatalf("tags = %v, want [beach family]", titles)
	}

	t.Run("MovesToExactSet", func(t *testing.T) {
		// Keep "family", drop "beach", add "summer".
		if err := store.ReconcileVideoTags(ctx, v.ID, []string{"family", "summer"}); err != nil {
			t.Fatalf("ReconcileVideoTags failed: %v", err)
		}
		titles := tagTitlesFor(t, store, v.ID)
		if len(titles) != 2 || titles[0] != "family" || titles[1] != "summer" {
			t.Fatalf("tags = %v, want [family summer]", titles)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		if err := store.ReconcileVideoTags(ctx, v.ID, []string{"family", "summer"}); err != nil {
			t.Fatalf("ReconcileVideoTags(repeat) failed: %v", err)
		}
		titles := tagTitlesFor(t, store, v.ID)
		if len(titles) != 2 {
			t.Fatalf("repeat reconcile changed tags: %v", titles)
		}
	})

	t.Run("OrphansAreKept", func(t *testing.T) {
		if err := store.ReconcileVideoTags(ctx, v.ID, nil); err != nil {
			t.Fatalf("ReconcileVideoTags(clear) failed: %v", err)
		}
		if titles := tagTitlesFor(t, store, v.ID); len(titles) != 0 {
			t.Fatalf("tags after clear = %v, want none", titles)
		}

		// Tags themselves are never deleted, only associations.
		all, err := store.ListTags(ctx)
		if err != nil {
			t.Fatalf("ListTags failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("ListTags = %d rows, want 3 orphaned tags", len(all))
		}
	})

	t.Run("MissingVideo", func(t *testing.T) {
		if err := store.ReconcileVideoTags(ctx, "no-such-id", []string{"x"}); err != ErrNotFound {
			t.Errorf("ReconcileVideoTags(missing video) = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateVideoReconcilesTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v := mustInsertVideo(t, store, "clip")

	title := "clip v2"
	if _, err := store.UpdateVideo(ctx, v.ID, VideoUpdates{
		Title:     &title,
		TagTitles: []string{"travel"},
	}); err != nil {
		t.Fatalf("UpdateVideo with tags failed: %v", err)
	}
	if titles := tagTitlesFor(t, store, v.ID); len(titles) != 1 || titles[0] != "travel" {
		t.Fatalf("tags = %v, want [travel]", titles)
	}

	// Nil TagTitles leaves associations alone.
	title = "clip v3"
	if _, err := store.UpdateVideo(ctx, v.ID, VideoUpdates{Title: &title}); err != nil {
		t.Fatalf("UpdateVideo failed: %v", err)
	}
	if titles := tagTitlesFor(t, store, v.ID); len(titles) != 1 {
		t.Fatalf("nil TagTitles changed tags: %v", titles)
	}

	// Empty slice clears them.
	if _, err := store.UpdateVideo(ctx, v.ID, VideoUpdates{TagTitles: []string{}}); err != nil {
		t.Fatalf("UpdateVideo(clear tags) failed: %v", err)
	}
	if titles := tagTitlesFor(t, store, v.ID); len(titles) != 0 {
		t.Fatalf("empty TagTitles left tags: %v", titles)
	}
}
