package api

import "net/http"

func (s *Server) listAdvice(w http.ResponseWriter, r *http.Request) {
	lang := languageFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"language": lang,
		"advice":   s.deps.Advice.List(lang),
	})
}

func (s *Server) currentAdvice(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Rotator == nil {
		writeError(w, http.StatusServiceUnavailable, "advice rotation not running")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Rotator.Current())
}
