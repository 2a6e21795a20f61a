package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/posesketch/internal/config"
)

// Tunable is the part of a running sketch the settings endpoint adjusts.
type Tunable interface {
	Tuning() config.Tuning
	SetTuning(t config.Tuning) error
	ResetTuning() (config.Tuning, error)
}

// SettingsHandler serves GET, PUT and DELETE /api/settings. DELETE drops the
// saved tuning and goes back to the configured one.
type SettingsHandler struct {
	sketch Tunable
}

// NewSettingsHandler creates a SettingsHandler for sketch.
func NewSettingsHandler(sketch Tunable) *SettingsHandler {
	return &SettingsHandler{sketch: sketch}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.sketch.Tuning())
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		t, err := h.sketch.ResetTuning()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reset settings")
			return
		}
		writeJSON(w, http.StatusOK, t)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update applies a full or partial tuning document. Fields left out keep
// their current values.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	t := h.sketch.Tuning()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := config.ValidateTuning(&t); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.sketch.SetTuning(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, t)
}
