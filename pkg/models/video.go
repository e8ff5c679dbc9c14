package models

import "time"

// Orientation values stored on a video record.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

// Video represents an imported video in the library. The vault owns the
// video file and its thumbnail; their lifetime is tied to this record.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	VideoPath   string    `json:"-"` // don't expose file paths to clients
	ThumbPath   string    `json:"-"`
	IsFavorite  bool      `json:"isFavorite"`
	Orientation string    `json:"orientation"`
	Duration    float64   `json:"duration"` // in seconds
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	FrameRate   float64   `json:"frameRate"`
	Codec       string    `json:"codec,omitempty"`
	HasAudio    bool      `json:"hasAudio"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Playlist represents a user-created playlist. VideoCount is derived when
// listing and is not stored.
type Playlist struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	VideoCount  int       `json:"videoCount"`
}

// PlaylistVideo is a membership row linking a playlist to a video at a
// position. Positions within a playlist are unique; Create, Update and
// Reorder keep them dense from zero.
type PlaylistVideo struct {
	PlaylistID string `json:"playlistId"`
	VideoID    string `json:"videoId"`
	Position   int    `json:"position"`
}

// Tag is a free-text label. Title is unique across all tags and acts as
// the natural key for deduplication.
type Tag struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
