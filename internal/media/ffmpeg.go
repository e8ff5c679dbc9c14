package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FFmpeg probes videos with ffprobe and extracts thumbnails with ffmpeg.
type FFmpeg struct {
	ffprobePath string
	ffmpegPath  string
	logger      *logrus.Logger
}

// NewFFmpeg verifies that ffprobe and ffmpeg are installed and
// accessible under the given names or paths.
func NewFFmpeg(ffprobePath, ffmpegPath string, logger *logrus.Logger) (*FFmpeg, error) {
	resolvedProbe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}
	resolvedMpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	return &FFmpeg{
		ffprobePath: resolvedProbe,
		ffmpegPath:  resolvedMpeg,
		logger:      logger,
	}, nil
}

// ffprobeOutput mirrors the subset of ffprobe's JSON output we read.
type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation int `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe against the file and parses its JSON output.
func (f *FFmpeg) Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := Info{}
	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)

	rotation := 0
	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				info.Codec = stream.CodecName
				info.FrameRate = parseFrameRate(stream.AvgFrameRate)
				if stream.Tags.Rotate != "" {
					rotation, _ = strconv.Atoi(stream.Tags.Rotate)
				}
				for _, sd := range stream.SideDataList {
					if sd.Rotation != 0 {
						rotation = sd.Rotation
					}
				}
			}
		case "audio":
			info.HasAudio = true
		}
	}

	info.Orientation = OrientationFor(info.Width, info.Height, normalizeRotation(rotation))
	return info, nil
}

// ExtractThumbnail writes a single JPEG frame at offset to outPath.
func (f *FFmpeg) ExtractThumbnail(ctx context.Context, videoPath, outPath string, offset time.Duration) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-ss", formatOffset(offset),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		outPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		f.logger.WithError(err).WithFields(logrus.Fields{
			"video_path": videoPath,
			"output":     string(output),
		}).Error("Failed to extract thumbnail")
		return fmt.Errorf("ffmpeg thumbnail extraction failed: %w", err)
	}
	return nil
}

// parseFrameRate parses ffprobe's fraction notation ("30000/1001").
func parseFrameRate(raw string) float64 {
	if raw == "" || raw == "0/0" {
		return 0
	}
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		rate, _ := strconv.ParseFloat(parts[0], 64)
		return rate
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// normalizeRotation maps arbitrary rotation values into [0, 360).
func normalizeRotation(rotation int) int {
	rotation %= 360
	if rotation < 0 {
		rotation += 360
	}
	return rotation
}

// formatOffset renders a duration as fractional seconds for ffmpeg/-ss.
func formatOffset(offset time.Duration) string {
	return strconv.FormatFloat(offset.Seconds(), 'f', 3, 64)
}
