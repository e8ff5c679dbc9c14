package server

import (
	"encoding/json"
	"net/http"

	"reelvault/internal/vaulterr"
)

// handleGetPlaylists returns all playlists (with video counts) as JSON.
func (vs *VaultServer) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	playlists, err := vs.playlists.List(r.Context())
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusOK, playlists)
}

// handleCreatePlaylist creates a new playlist with an initial ordered
// video list (POST json title/description/videoIds).
func (vs *VaultServer) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		VideoIDs    []string `json:"videoIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
		return
	}

	created, message, err := vs.playlists.Create(r.Context(), req.Title, req.Description, req.VideoIDs)
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"playlist": created,
		"message":  message,
	})
}

// handlePlaylistSubroutes dispatches /api/playlists/{id} and children.
func (vs *VaultServer) handlePlaylistSubroutes(w http.ResponseWriter, r *http.Request) {
	playlistID := pathPart(r.URL.Path, 2)
	if playlistID == "" {
		vs.respondError(w, r, vaulterr.New(vaulterr.KindInvalid, "invalid playlist ID"))
		return
	}

	switch pathPart(r.URL.Path, 3) {
	case "":
		vs.handlePlaylist(w, r, playlistID)
	case "videos":
		vs.handlePlaylistVideos(w, r, playlistID)
	case "reorder":
		vs.handleReorderPlaylist(w, r, playlistID)
	default:
		vs.respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (vs *VaultServer) handlePlaylist(w http.ResponseWriter, r *http.Request, playlistID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		p, err := vs.playlists.Get(ctx, playlistID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var req struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			VideoIDs    []string `json:"videoIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}

		message, err := vs.playlists.Update(ctx, playlistID, req.Title, req.Description, req.VideoIDs)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": message})

	case http.MethodDelete:
		message, err := vs.playlists.Delete(ctx, playlistID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": message})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// handlePlaylistVideos serves the ordered video list (GET), the
// toggle-membership control (POST json videoId) and single-membership
// removal (DELETE json videoId).
func (vs *VaultServer) handlePlaylistVideos(w http.ResponseWriter, r *http.Request, playlistID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		videos, err := vs.playlists.GetVideos(ctx, playlistID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, videos)

	case http.MethodPost:
		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}

		added, message, err := vs.playlists.ToggleVideo(ctx, playlistID, req.VideoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]interface{}{
			"isAdded": added,
			"message": message,
		})

	case http.MethodDelete:
		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}

		message, err := vs.playlists.RemoveVideo(ctx, playlistID, req.VideoID)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": message})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// handleReorderPlaylist applies a full permutation of the playlist's
// members (POST json videoIds in the new order).
func (vs *VaultServer) handleReorderPlaylist(w http.ResponseWriter, r *http.Request, playlistID string) {
	if r.Method != http.MethodPost {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		VideoIDs []string `json:"videoIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
		return
	}

	if err := vs.playlists.Reorder(r.Context(), playlistID, req.VideoIDs); err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Playlist order updated successfully."})
}
