package server

import (
	"encoding/json"
	"net/http"

	"reelvault/internal/settings"
	"reelvault/internal/vaulterr"
)

func (vs *VaultServer) handlePlaybackSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		p, err := vs.settings.GetPlayback(ctx)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var p settings.Playback
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.settings.SetPlayback(ctx, p); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Settings saved."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (vs *VaultServer) handleSortSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		sort, err := vs.settings.GetSort(ctx)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, sort)

	case http.MethodPut:
		var sort settings.Sort
		if err := json.NewDecoder(r.Body).Decode(&sort); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.settings.SetSort(ctx, sort); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Settings saved."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (vs *VaultServer) handleLockInterval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		ms, err := vs.settings.GetLockInterval(ctx)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]int{"lockIntervalMs": ms})

	case http.MethodPut:
		var req struct {
			LockIntervalMS int `json:"lockIntervalMs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.settings.SetLockInterval(ctx, req.LockIntervalMS); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Settings saved."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// handlePasscode enables (POST json code), reports (GET) or disables
// (DELETE) the passcode lock.
func (vs *VaultServer) handlePasscode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		enabled, err := vs.settings.PasscodeEnabled(ctx)
		if err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})

	case http.MethodPost:
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
			return
		}
		if err := vs.settings.SetPasscode(ctx, req.Code); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Passcode enabled."})

	case http.MethodDelete:
		if err := vs.settings.DisablePasscode(ctx); err != nil {
			vs.respondError(w, r, err)
			return
		}
		vs.respondJSON(w, http.StatusOK, map[string]string{"message": "Passcode disabled."})

	default:
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (vs *VaultServer) handleVerifyPasscode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		vs.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		vs.respondError(w, r, vaulterr.Wrap(vaulterr.KindInvalid, "invalid JSON", err))
		return
	}

	ok, err := vs.settings.VerifyPasscode(r.Context(), req.Code)
	if err != nil {
		vs.respondError(w, r, err)
		return
	}
	vs.respondJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
