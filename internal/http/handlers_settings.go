package http

import (
	"net/http"

	"secondbrain/internal/settings"
)

type settingsRequest struct {
	Currency string         `json:"currency"`
	Theme    settings.Theme `json:"theme"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.svc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(prefs).Write(w)
}

// handleUpdateSettings changes the fields present in the body and returns
// the resulting preferences.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Currency != "" {
		if _, err := s.svc.Settings.SetCurrency(r.Context(), req.Currency); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Theme != "" {
		if err := s.svc.Settings.SetTheme(r.Context(), req.Theme); err != nil {
			writeError(w, r, err)
			return
		}
	}
	s.handleGetSettings(w, r)
}
