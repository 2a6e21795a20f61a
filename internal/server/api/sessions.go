package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/posesketch/internal/store"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 200
)

// SessionLister lists recorded sketch runs.
type SessionLister interface {
	Sessions(limit int) ([]*store.Session, error)
}

// SessionsHandler serves GET /api/sessions?limit=N.
type SessionsHandler struct {
	sessions SessionLister
}

// NewSessionsHandler creates a SessionsHandler.
func NewSessionsHandler(sessions SessionLister) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := h.sessions.Sessions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}
