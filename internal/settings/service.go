// Package settings persists user preferences and the passcode lock in
// the settings key-value table.
package settings

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"reelvault/internal/database"
	"reelvault/internal/live"
	"reelvault/internal/vaulterr"
)

// Setting keys.
const (
	keyPlayback     = "playback"
	keySort         = "sort"
	keyPasscodeHash = "passcode_hash"
	keyLockInterval = "lock_interval_ms"
	progressPrefix  = "progress:"
)

// Playback holds player preferences.
type Playback struct {
	AutoPlay       bool `json:"autoPlay"`
	Loop           bool `json:"loop"`
	Mute           bool `json:"mute"`
	NativeControls bool `json:"nativeControls"`
}

// Sort holds library sort preferences.
type Sort struct {
	Key        string `json:"key"`        // "date" or "title"
	DateOrder  string `json:"dateOrder"`  // "asc" or "desc"
	TitleOrder string `json:"titleOrder"` // "asc" or "desc"
}

// Service reads and writes preferences. The passcode is stored as a
// bcrypt hash of pepper+code; the raw code never touches the database.
type Service struct {
	store         *database.Store
	notifier      live.Notifier
	logger        *logrus.Logger
	pepper        string
	defaultLockMS int
}

// NewService wires the settings service. pepper may be empty.
func NewService(store *database.Store, notifier live.Notifier, logger *logrus.Logger, pepper string, defaultLockMS int) *Service {
	return &Service{
		store:         store,
		notifier:      notifier,
		logger:        logger,
		pepper:        pepper,
		defaultLockMS: defaultLockMS,
	}
}

// GetPlayback returns the stored playback preferences or defaults.
func (s *Service) GetPlayback(ctx context.Context) (Playback, error) {
	var p Playback
	err := s.getJSON(ctx, keyPlayback, &p)
	return p, err
}

// SetPlayback stores playback preferences.
func (s *Service) SetPlayback(ctx context.Context, p Playback) error {
	return s.setJSON(ctx, keyPlayback, p)
}

// GetSort returns the stored sort preferences or defaults.
func (s *Service) GetSort(ctx context.Context) (Sort, error) {
	p := Sort{Key: "date", DateOrder: "asc", TitleOrder: "asc"}
	err := s.getJSON(ctx, keySort, &p)
	return p, err
}

// SetSort stores sort preferences.
func (s *Service) SetSort(ctx context.Context, sort Sort) error {
	switch sort.Key {
	case "date", "title":
	default:
		return vaulterr.New(vaulterr.KindInvalid, "sort key must be date or title")
	}
	return s.setJSON(ctx, keySort, sort)
}

// GetProgress returns the saved resume position for a video in seconds,
// zero when none is stored.
func (s *Service) GetProgress(ctx context.Context, videoID string) (float64, error) {
	value, ok, err := s.store.GetSetting(ctx, progressPrefix+videoID)
	if err != nil {
		return 0, vaulterr.Wrap(vaulterr.KindStorage, "failed to load progress", err)
	}
	if !ok {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, nil
	}
	return seconds, nil
}

// SetProgress saves the resume position for a video.
func (s *Service) SetProgress(ctx context.Context, videoID string, seconds float64) error {
	err := s.store.SetSetting(ctx, progressPrefix+videoID, strconv.FormatFloat(seconds, 'f', 3, 64))
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to save progress", err)
	}
	return nil
}

// SetPasscode enables the passcode lock, replacing any previous code.
func (s *Service) SetPasscode(ctx context.Context, code string) error {
	if code == "" {
		return vaulterr.New(vaulterr.KindInvalid, "passcode cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.pepper+code), bcrypt.DefaultCost)
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindUnknown, "failed to hash passcode", err)
	}

	if err := s.store.SetSetting(ctx, keyPasscodeHash, string(hash)); err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to save passcode", err)
	}

	s.notifier.Publish(live.TableSettings)
	s.logger.Info("Passcode lock enabled")
	return nil
}

// VerifyPasscode checks a candidate code against the stored hash. A
// vault without a passcode rejects all candidates.
func (s *Service) VerifyPasscode(ctx context.Context, code string) (bool, error) {
	hash, ok, err := s.store.GetSetting(ctx, keyPasscodeHash)
	if err != nil {
		return false, vaulterr.Wrap(vaulterr.KindStorage, "failed to load passcode", err)
	}
	if !ok {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(s.pepper+code)) == nil, nil
}

// PasscodeEnabled reports whether a passcode is set.
func (s *Service) PasscodeEnabled(ctx context.Context) (bool, error) {
	_, ok, err := s.store.GetSetting(ctx, keyPasscodeHash)
	if err != nil {
		return false, vaulterr.Wrap(vaulterr.KindStorage, "failed to load passcode", err)
	}
	return ok, nil
}

// DisablePasscode removes the passcode lock.
func (s *Service) DisablePasscode(ctx context.Context) error {
	if err := s.store.DeleteSetting(ctx, keyPasscodeHash); err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to disable passcode", err)
	}
	s.notifier.Publish(live.TableSettings)
	s.logger.Info("Passcode lock disabled")
	return nil
}

// GetLockInterval returns the inactivity interval in milliseconds after
// which the UI should lock.
func (s *Service) GetLockInterval(ctx context.Context) (int, error) {
	value, ok, err := s.store.GetSetting(ctx, keyLockInterval)
	if err != nil {
		return 0, vaulterr.Wrap(vaulterr.KindStorage, "failed to load lock interval", err)
	}
	if !ok {
		return s.defaultLockMS, nil
	}
	ms, err := strconv.Atoi(value)
	if err != nil {
		return s.defaultLockMS, nil
	}
	return ms, nil
}

// SetLockInterval stores the inactivity lock interval.
func (s *Service) SetLockInterval(ctx context.Context, ms int) error {
	if ms < 0 {
		return vaulterr.New(vaulterr.KindInvalid, "lock interval must not be negative")
	}
	if err := s.store.SetSetting(ctx, keyLockInterval, strconv.Itoa(ms)); err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to save lock interval", err)
	}
	s.notifier.Publish(live.TableSettings)
	return nil
}

func (s *Service) getJSON(ctx context.Context, key string, out interface{}) error {
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to load settings", err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Corrupt setting value, using defaults")
	}
	return nil
}

func (s *Service) setJSON(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindUnknown, "failed to encode settings", err)
	}
	if err := s.store.SetSetting(ctx, key, string(encoded)); err != nil {
		return vaulterr.Wrap(vaulterr.KindStorage, "failed to save settings", err)
	}
	s.notifier.Publish(live.TableSettings)
	return nil
}
