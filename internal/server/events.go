package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// handleEvents streams change notifications as server-sent events. The
// UI re-runs its queries whenever an event names a table it renders.
// Optional ?tables=videos,playlist_videos narrows the subscription.
func (vs *VaultServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		vs.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	var tables []string
	if raw := r.URL.Query().Get("tables"); raw != "" {
		for _, table := range strings.Split(raw, ",") {
			if table = strings.TrimSpace(table); table != "" {
				tables = append(tables, table)
			}
		}
	}

	events, cancel := vs.hub.Subscribe(tables...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				vs.logger.WithError(err).Error("Failed to encode change event")
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
