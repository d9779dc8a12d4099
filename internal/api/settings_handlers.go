package api

import (
	"net/http"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/settings"
)

type languageRequest struct {
	Language string `json:"language"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// remindersRequest updates either or both reminder times.
type remindersRequest struct {
	Morning *string `json:"morning"`
	Evening *string `json:"evening"`
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

// putLanguage handles PUT /v1/settings/language. Listeners reload the new
// language's partition before the response is written.
func (s *Server) putLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang, err := catalog.ParseLanguage(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Settings.SetLanguage(r.Context(), lang); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

func (s *Server) putTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Settings.SetTheme(r.Context(), settings.Theme(req.Theme)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

func (s *Server) putReminders(w http.ResponseWriter, r *http.Request) {
	var req remindersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Morning == nil && req.Evening == nil {
		writeError(w, http.StatusBadRequest, "morning or evening is required")
		return
	}
	// Validate both before writing either.
	for _, v := range []*string{req.Morning, req.Evening} {
		if v == nil {
			continue
		}
		if _, _, err := settings.ParseReminderTime(*v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Morning != nil {
		if err := s.deps.Settings.SetMorningReminder(r.Context(), *req.Morning); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if req.Evening != nil {
		if err := s.deps.Settings.SetEveningReminder(r.Context(), *req.Evening); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

func (s *Server) toggleNotifications(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.deps.Settings.ToggleNotifications(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (s *Server) toggleSound(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.deps.Settings.ToggleSound(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}
