package settings

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/vaulterr"
)

func newTestService(t *testing.T, pepper string) *Service {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := database.New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewService(store, live.NopNotifier{}, logger, pepper, 30000)
}

func TestPlaybackRoundTrip(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	// Defaults before anything is stored.
	p, err := svc.GetPlayback(ctx)
	if err != nil {
		t.Fatalf("GetPlayback failed: %v", err)
	}
	if p.AutoPlay || p.Loop || p.Mute || p.NativeControls {
		t.Errorf("default playback = %+v, want all false", p)
	}

	want := Playback{AutoPlay: true, Loop: true, NativeControls: true}
	if err := svc.SetPlayback(ctx, want); err != nil {
		t.Fatalf("SetPlayback failed: %v", err)
	}

	got, err := svc.GetPlayback(ctx)
	if err != nil {
		t.Fatalf("GetPlayback failed: %v", err)
	}
	if got != want {
		t.Errorf("GetPlayback = %+v, want %+v", got, want)
	}
}

func TestSortPreferences(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	sort, err := svc.GetSort(ctx)
	if err != nil {
		t.Fatalf("GetSort failed: %v", err)
	}
	if sort.Key != "date" || sort.DateOrder != "asc" || sort.TitleOrder != "asc" {
		t.Errorf("default sort = %+v", sort)
	}

	if err := svc.SetSort(ctx, Sort{Key: "title", DateOrder: "desc", TitleOrder: "asc"}); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}
	sort, err = svc.GetSort(ctx)
	if err != nil {
		t.Fatalf("GetSort failed: %v", err)
	}
	if sort.Key != "title" || sort.DateOrder != "desc" {
		t.Errorf("GetSort = %+v", sort)
	}

	if err := svc.SetSort(ctx, Sort{Key: "duration"}); vaulterr.KindOf(err) != vaulterr.KindInvalid {
		t.Errorf("SetSort(bad key) kind = %v, want KindInvalid", vaulterr.KindOf(err))
	}
}

func TestProgress(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	seconds, err := svc.GetProgress(ctx, "video-1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if seconds != 0 {
		t.Errorf("GetProgress(unset) = %v, want 0", seconds)
	}

	if err := svc.SetProgress(ctx, "video-1", 93.25); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	seconds, err = svc.GetProgress(ctx, "video-1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if seconds != 93.25 {
		t.Errorf("GetProgress = %v, want 93.25", seconds)
	}

	// Progress is per video.
	if seconds, _ := svc.GetProgress(ctx, "video-2"); seconds != 0 {
		t.Errorf("GetProgress(other video) = %v, want 0", seconds)
	}
}

func TestPasscode(t *testing.T) {
	svc := newTestService(t, "pepper-value")
	ctx := context.Background()

	t.Run("NoPasscodeRejectsAll", func(t *testing.T) {
		enabled, err := svc.PasscodeEnabled(ctx)
		if err != nil || enabled {
			t.Fatalf("PasscodeEnabled = (%v, %v), want disabled", enabled, err)
		}
		ok, err := svc.VerifyPasscode(ctx, "1234")
		if err != nil {
			t.Fatalf("VerifyPasscode failed: %v", err)
		}
		if ok {
			t.Error("verification must fail when no passcode is set")
		}
	})

	t.Run("SetAndVerify", func(t *testing.T) {
		if err := svc.SetPasscode(ctx, "1234"); err != nil {
			t.Fatalf("SetPasscode failed: %v", err)
		}

		enabled, _ := svc.PasscodeEnabled(ctx)
		if !enabled {
			t.Error("PasscodeEnabled should report true after SetPasscode")
		}

		ok, err := svc.VerifyPasscode(ctx, "1234")
		if err != nil || !ok {
			t.Errorf("VerifyPasscode(correct) = (%v, %v), want valid", ok, err)
		}
		ok, err = svc.VerifyPasscode(ctx, "9999")
		if err != nil || ok {
			t.Errorf("VerifyPasscode(wrong) = (%v, %v), want invalid", ok, err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		if err := svc.SetPasscode(ctx, "5678"); err != nil {
			t.Fatalf("SetPasscode(replace) failed: %v", err)
		}
		if ok, _ := svc.VerifyPasscode(ctx, "1234"); ok {
			t.Error("old passcode should no longer verify")
		}
		if ok, _ := svc.VerifyPasscode(ctx, "5678"); !ok {
			t.Error("new passcode should verify")
		}
	})

	t.Run("Disable", func(t *testing.T) {
		if err := svc.DisablePasscode(ctx); err != nil {
			t.Fatalf("DisablePasscode failed: %v", err)
		}
		enabled, _ := svc.PasscodeEnabled(ctx)
		if enabled {
			t.Error("PasscodeEnabled should report false after disable")
		}
	})

	t.Run("EmptyCode", func(t *testing.T) {
		if err := svc.SetPasscode(ctx, ""); vaulterr.KindOf(err) != vaulterr.KindInvalid {
			t.Errorf("SetPasscode(empty) kind = %v, want KindInvalid", vaulterr.KindOf(err))
		}
	})
}

func TestLockInterval(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	ms, err := svc.GetLockInterval(ctx)
	if err != nil {
		t.Fatalf("GetLockInterval failed: %v", err)
	}
	if ms != 30000 {
		t.Errorf("default lock interval = %d, want 30000", ms)
	}

	if err := svc.SetLockInterval(ctx, 60000); err != nil {
		t.Fatalf("SetLockInterval failed: %v", err)
	}
	ms, _ = svc.GetLockInterval(ctx)
	if ms != 60000 {
		t.Errorf("lock interval = %d, want 60000", ms)
	}

	if err := svc.SetLockInterval(ctx, -1); vaulterr.KindOf(err) != vaulterr.KindInvalid {
		t.Errorf("SetLockInterval(-1) kind = %v, want KindInvalid", vaulterr.KindOf(err))
	}
}
