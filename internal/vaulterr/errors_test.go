package vaulterr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(KindStorage, "should vanish", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Nil", nil, KindUnknown},
		{"Plain", cause, KindUnknown},
		{"New", New(KindNotFound, "gone"), KindNotFound},
		{"Wrapped", Wrap(KindFilesystem, "write failed", cause), KindFilesystem},
		{"DoublyWrapped", fmt.Errorf("outer: %w", Wrap(KindInvalid, "bad input", cause)), KindInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMessageOf(t *testing.T) {
	cause := errors.New("unique constraint failed: videos.id")

	err := Wrap(KindStorage, "failed to save video", cause)
	if got := MessageOf(err); got != "failed to save video" {
		t.Errorf("MessageOf = %q", got)
	}

	// The cause stays out of the user-safe message but in Error().
	if got := err.Error(); got != "failed to save video: unique constraint failed: videos.id" {
		t.Errorf("Error() = %q", got)
	}

	if got := MessageOf(cause); got != "internal error" {
		t.Errorf("MessageOf(unclassified) = %q, want fallback", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(KindUnknown, "wrapped", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Wrap")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(KindNotFound, "gone")) {
		t.Error("IsNotFound(KindNotFound) = false")
	}
	if IsNotFound(New(KindInvalid, "bad")) {
		t.Error("IsNotFound(KindInvalid) = true")
	}
}
