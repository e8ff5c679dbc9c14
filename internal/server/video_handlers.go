package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelvault/internal/database"
	"reelvault/internal/library"
	"reelvault/internal/vaulterr"
)

// handleVideos lists the library. Query parameters: q (search),
// favorites=true, sort (date|title), order (asc|desc).
func (vs *VaultServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	query := r.URL.Query()

	switch {
	case query.Get("q") != "":
		videos, err := vs.library.Search(ctx, query.Get("q"))
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, videos)
	case query.Get("favorites") == "true":
		videos, err := vs.library.ListFavorites(ctx)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, videos)
	default:
		videos, err := vs.library.List(ctx, query.Get("sort"), query.Get("order"))
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, videos)
	}
}

// handleImportVideos accepts a multipart upload of one or more video
// files and imports them. Files import independently; the response
// carries a per-file outcome.
func (vs *VaultServer) handleImportVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(512 << 20); err != nil {
		vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "failed to parse upload form", err))
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		vs.respondError(w, r, vaulterr.New(vaulterr.KindInvalid, "no files provided"))
		return
	}

	stagingDir, err := os.MkdirTemp("", "reelvault-import-")
	if err != nil {
		vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to stage upload", err))
		return
	}
	defer os.RemoveAll(stagingDir)

	var requests []library.ImportRequest
	for _, header := range files {
		safeName := filepath.Base(header.Filename)
		if !vs.config.IsFormatSupported(strings.ToLower(filepath.Ext(safeName))) {
			vs.respondError(w, r, vaulterr.Newf(vaulterr.KindInvalid,
				"unsupported file type: %s", safeName))
			return
		}

		src, err := header.Open()
		if err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "failed to read uploaded file", err))
			return
		}

		stagedPath := filepath.Join(stagingDir, safeName)
		dst, err := os.Create(stagedPath)
		if err != nil {
			src.Close()
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to stage upload", err))
			return
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindFilesystem, "failed to stage upload", err))
			return
		}

		requests = append(requests, library.ImportRequest{SourcePath: stagedPath})
	}

	results := vs.library.Import(r.Context(), requests)

	type fileOutcome struct {
		File  string      `json:"file"`
		Video interface{} `json:"video,omitempty"`
		Error string      `json:"error,omitempty"`
	}
	outcomes := make([]fileOutcome, len(results))
	failures := 0
	for i, result := range results {
		outcomes[i] = fileOutcome{File: filepath.Base(result.SourcePath)}
		if result.Err != nil {
			outcomes[i].Error = vaulterr.MessageOf(result.Err)
			failures++
		} else {
			outcomes[i].Video = result.Video
		}
	}

	status := http.StatusOK
	if failures == len(results) {
		status = http.StatusBadGateway
	}
	vs.respondJSON(w, status, map[string]interface{}{"results": outcomes})
}

// handleVideoSubroutes dispatches /api/videos/{id} and its children.
func (vs *VaultServer) handleVideoSubroutes(w http.ResponseWriter, r *http.Request) {
	videoID := pathPart(r.URL.Path, 2)
	if videoID == "" {
		vs.respondError(w, r, vaulterr.New(vaulterr.KindInvalid, "invalid video ID"))
		return
	}

	switch pathPart(r.URL.Path, 3) {
	case "":
		vs.handleVideo(w, r, videoID)
	case "favorite":
		vs.handleToggleFavorite(w, r, videoID)
	case "tags":
		vs.handleVideoTags(w, r, videoID)
	case "playlists":
		vs.handleVideoPlaylists(w, r, videoID)
	case "progress":
		vs.handleVideoProgress(w, r, videoID)
	default:
		vs.respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (vs *VaultServer) handleVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		video, err := vs.library.Get(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, video)

	case http.MethodPatch, http.MethodPut:
		var req struct {
			Title       *string  `json:"title"`
			Description *string  `json:"description"`
			Orientation *string  `json:"orientation"`
			Tags        []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}

		video, err := vs.library.Update(ctx, videoID, database.VideoUpdates{
			Title:       req.Title,
			Description: req.Description,
			Orientation: req.Orientation,
			TagTitles:   req.Tags,
		})
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]interface{}{
			"video":   video,
			"message": "Video " + video.Title + " successfully updated.",
		})

	case http.MethodDelete:
		message, err := vs.library.Delete(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": message})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (vs *VaultServer) handleToggleFavorite(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPost {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	favorite, message, err := vs.library.ToggleFavorite(r.Context(), videoID)
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusOK, map[string]interface{}{
		"isFavorite": favorite,
		"message":    message,
	})
}

func (vs *VaultServer) handleVideoTags(w http.ResponseWriter, r *http.Request, videoID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		found, err := vs.tags.ForVideo(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, found)

	case http.MethodPut:
		var req struct {
			Tags []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.tags.Reconcile(ctx, videoID, req.Tags); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Tags updated."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// handleVideoPlaylists serves the playlists containing a video and the
// "remove from everywhere" control.
func (vs *VaultServer) handleVideoPlaylists(w http.ResponseWriter, r *http.Request, videoID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		playlists, err := vs.playlists.ForVideo(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, playlists)

	case http.MethodDelete:
		message, err := vs.playlists.RemoveVideoFromAllPlaylists(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": message})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (vs *VaultServer) handleVideoProgress(w http.ResponseWriter, r *http.Request, videoID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		seconds, err := vs.settings.GetProgress(ctx, videoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]float64{"seconds": seconds})

	case http.MethodPut:
		var req struct {
			Seconds float64 `json:"seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.settings.SetProgress(ctx, videoID, req.Seconds); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Progress saved."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// handleListTags returns all tags.
func (vs *VaultServer) handleListTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	found, err := vs.tags.List(r.Context())
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusOK, found)
}

// handleStreamVideo serves the managed video file. http.ServeFile
// handles Range requests, so seeking works in players.
func (vs *VaultServer) handleStreamVideo(w http.ResponseWriter, r *http.Request) {
	videoID := pathPart(r.URL.Path, 1)
	video, err := vs.library.Get(r.Context(), videoID)
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	http.ServeFile(w, r, video.VideoPath)
}

// handleThumbnail serves the video's thumbnail image.
func (vs *VaultServer) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID := pathPart(r.URL.Path, 1)
	video, err := vs.library.Get(r.Context(), videoID)
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	http.ServeFile(w, r, video.ThumbPath)
}
