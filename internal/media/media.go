// Package media defines the probing and thumbnail collaborator
// interfaces the library service consumes, plus the default
// implementation that shells out to ffprobe/ffmpeg.
package media

import (
	"context"
	"time"

	"reelvault/pkg/models"
)

// Info holds the metadata probed from a video file.
type Info struct {
	Duration    float64 // in seconds
	Width       int
	Height      int
	FrameRate   float64
	Codec       string
	HasAudio    bool
	Orientation string
}

// Prober extracts metadata from a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// Thumbnailer writes a still frame of the video at the given offset to
// outPath.
type Thumbnailer interface {
	ExtractThumbnail(ctx context.Context, videoPath, outPath string, offset time.Duration) error
}

// OrientationFor derives the stored orientation from probed dimensions.
// Rotation of 90 or 270 degrees swaps the effective axes.
func OrientationFor(width, height, rotation int) string {
	if rotation == 90 || rotation == 270 || rotation == -90 {
		width, height = height, width
	}
	if height > width {
		return models.OrientationPortrait
	}
	return models.OrientationLandscape
}
