package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"reelvault/internal/library"
)

// inboxWatcher monitors the inbox directory and imports any supported
// video file dropped there. Writes are debounced so a file is only
// imported once the copy into the inbox has settled.
type inboxWatcher struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

const inboxSettleDelay = 2 * time.Second

// startInboxWatcher begins watching the configured inbox directory,
// creating it if necessary.
func (vs *VaultServer) startInboxWatcher() error {
	inboxDir := vs.config.Media.InboxDir
	if err := os.MkdirAll(inboxDir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(inboxDir); err != nil {
		watcher.Close()
		return err
	}

	vs.watcher = &inboxWatcher{
		watcher: watcher,
		pending: make(map[string]*time.Timer),
	}

	go vs.watchInbox()

	// Pick up files already sitting in the inbox from a previous run.
	go vs.sweepInbox(inboxDir)

	vs.logger.WithField("inbox_dir", inboxDir).Info("Inbox watcher started")
	return nil
}

// watchInbox selects on watcher channels and schedules imports.
func (vs *VaultServer) watchInbox() {
	iw := vs.watcher
	defer iw.watcher.Close()

	for {
		select {
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			vs.handleInboxEvent(event)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			vs.logger.WithError(err).Error("Inbox watcher error")
		}
	}
}

// handleInboxEvent filters events down to supported video files and
// (re)arms the settle timer for the file.
func (vs *VaultServer) handleInboxEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}
	if !vs.config.IsFormatSupported(strings.ToLower(filepath.Ext(fileName))) {
		return
	}

	iw := vs.watcher
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if timer, ok := iw.pending[event.Name]; ok {
		timer.Reset(inboxSettleDelay)
		return
	}
	path := event.Name
	iw.pending[path] = time.AfterFunc(inboxSettleDelay, func() {
		iw.mu.Lock()
		delete(iw.pending, path)
		iw.mu.Unlock()
		vs.importInboxFile(path)
	})
}

// sweepInbox imports supported files that were already present when
// the watcher started.
func (vs *VaultServer) sweepInbox(inboxDir string) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		vs.logger.WithError(err).Warn("Could not sweep inbox directory")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !vs.config.IsFormatSupported(strings.ToLower(filepath.Ext(name))) {
			continue
		}
		vs.importInboxFile(filepath.Join(inboxDir, name))
	}
}

// importInboxFile imports a single file and removes it from the inbox
// on success. The inbox copy stays behind when the import fails so the
// user can retry.
func (vs *VaultServer) importInboxFile(path string) {
	vs.logger.WithField("file_path", path).Info("New video detected in inbox")

	results := vs.library.Import(context.Background(), []library.ImportRequest{{SourcePath: path}})
	if err := results[0].Err; err != nil {
		vs.logger.WithError(err).WithField("file_path", path).Error("Inbox import failed")
		return
	}

	if err := os.Remove(path); err != nil {
		vs.logger.WithError(err).WithField("file_path", path).Warn("Could not remove imported file from inbox")
	}

	vs.logger.WithFields(logrus.Fields{
		"id":    results[0].Video.ID,
		"title": results[0].Video.Title,
	}).Info("Imported video from inbox")
}

// stopInboxWatcher closes the watcher and cancels pending imports
// (idempotent).
func (vs *VaultServer) stopInboxWatcher() {
	iw := vs.watcher
	if iw == nil {
		return
	}
	iw.watcher.Close()

	iw.mu.Lock()
	for path, timer := range iw.pending {
		timer.Stop()
		delete(iw.pending, path)
	}
	iw.mu.Unlock()
}
