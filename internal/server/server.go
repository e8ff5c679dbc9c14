package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"reelvault/internal/config"
	"reelvault/internal/database"
	"reelvault/internal/library"
	"reelvault/internal/live"
	"reelvault/internal/media"
	"reelvault/internal/playlist"
	"reelvault/internal/settings"
	"reelvault/internal/tags"
	"reelvault/internal/vaulterr"
)

// VaultServer is the HTTP surface the UI talks to. It holds no business
// logic; every operation goes through the services.
type VaultServer struct {
	config    *config.Config
	db        *database.Store
	logger    *logrus.Logger
	hub       *live.Hub
	library   *library.Service
	playlists *playlist.Service
	tags      *tags.Service
	settings  *settings.Service
	mux       *http.ServeMux
	watcher   *inboxWatcher
}

// NewVaultServer builds the server and its services. The media tools
// are optional: when ffprobe/ffmpeg are missing the server still runs,
// with imports disabled.
func NewVaultServer(cfg *config.Config, db *database.Store, logger *logrus.Logger) (*VaultServer, error) {
	hub := live.NewHub(logger)

	// Library reads still work without media tools; only imports need them.
	var prober media.Prober = unavailableMedia{}
	var thumbnailer media.Thumbnailer = unavailableMedia{}
	if ffmpeg, err := media.NewFFmpeg(cfg.Media.FFprobePath, cfg.Media.FFmpegPath, logger); err != nil {
		logger.WithError(err).Warn("Media tools not available, imports disabled")
	} else {
		prober = ffmpeg
		thumbnailer = ffmpeg
	}

	vs := &VaultServer{
		config: cfg,
		db:     db,
		logger: logger,
		hub:    hub,
	}

	vs.library = library.NewService(db, prober, thumbnailer, hub, logger,
		cfg.Media.VideosDir, time.Duration(cfg.Media.ThumbnailOffset)*time.Millisecond)

	vs.playlists = playlist.NewService(db, hub, logger)
	vs.tags = tags.NewService(db, hub, logger)
	vs.settings = settings.NewService(db, hub, logger, cfg.Pepper(), cfg.Security.LockIntervalMS)

	vs.setupRoutes()
	return vs, nil
}

// Handler returns the root handler with CORS applied.
func (vs *VaultServer) Handler() http.Handler {
	return vs.corsMiddleware(vs.mux)
}

// Start runs the HTTP server until it fails. The inbox watcher starts
// alongside when enabled.
func (vs *VaultServer) Start() error {
	if vs.config.Media.WatchInbox {
		if err := vs.startInboxWatcher(); err != nil {
			vs.logger.WithError(err).Warn("Could not start inbox watcher")
		}
	}

	server := &http.Server{
		Addr:        vs.config.GetAddress(),
		Handler:     vs.Handler(),
		ReadTimeout: time.Duration(vs.config.Server.ReadTimeout) * time.Second,
	}

	vs.logger.WithField("address", vs.config.GetAddress()).Info("Reelvault server starting")
	return server.ListenAndServe()
}

// Shutdown stops background work.
func (vs *VaultServer) Shutdown() {
	vs.stopInboxWatcher()
	vs.logger.Info("Server shutdown complete")
}

func (vs *VaultServer) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", vs.handleHealthCheck)

	mux.HandleFunc("/api/videos", vs.handleVideos)
	mux.HandleFunc("/api/videos/import", vs.handleImportVideos)
	mux.HandleFunc("/api/videos/", vs.handleVideoSubroutes)
	mux.HandleFunc("/api/tags", vs.handleListTags)

	mux.HandleFunc("/api/playlists", vs.handleGetPlaylists)
	mux.HandleFunc("/api/playlists/create", vs.handleCreatePlaylist)
	mux.HandleFunc("/api/playlists/", vs.handlePlaylistSubroutes)

	mux.HandleFunc("/api/settings/playback", vs.handlePlaybackSettings)
	mux.HandleFunc("/api/settings/sort", vs.handleSortSettings)
	mux.HandleFunc("/api/settings/lock-interval", vs.handleLockInterval)
	mux.HandleFunc("/api/passcode", vs.handlePasscode)
	mux.HandleFunc("/api/passcode/verify", vs.handleVerifyPasscode)

	mux.HandleFunc("/api/events", vs.handleEvents)

	mux.HandleFunc("/stream/", vs.handleStreamVideo)
	mux.HandleFunc("/thumbs/", vs.handleThumbnail)

	vs.mux = mux
}

// corsMiddleware adds permissive CORS headers when enabled in config.
func (vs *VaultServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if vs.config.Server.EnableCORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respondJSON writes a JSON response body.
func (vs *VaultServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps a service error to an HTTP status and a user-safe
// message. Internal causes go to the log, never to the client.
func (vs *VaultServer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch vaulterr.KindOf(err) {
	case vaulterr.KindNotFound:
		status = http.StatusNotFound
	case vaulterr.KindInvalid:
		status = http.StatusBadRequest
	case vaulterr.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		vs.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
	}

	vs.respondJSON(w, status, map[string]string{"error": vaulterr.MessageOf(err)})
}

// pathPart returns the path segment at index, "" when absent.
func pathPart(path string, index int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if index < 0 || index >= len(parts) {
		return ""
	}
	return parts[index]
}

// unavailableMedia stands in for the media tools when ffprobe/ffmpeg
// are not installed.
type unavailableMedia struct{}

func (unavailableMedia) Probe(ctx context.Context, path string) (media.Info, error) {
	return media.Info{}, vaulterr.New(vaulterr.KindUnavailable, "media tools are not installed")
}

func (unavailableMedia) ExtractThumbnail(ctx context.Context, videoPath, outPath string, offset time.Duration) error {
	return vaulterr.New(vaulterr.KindUnavailable, "media tools are not installed")
}
