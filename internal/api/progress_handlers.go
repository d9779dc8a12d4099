package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

type progressResponse struct {
	store.Snapshot
	Morning store.Progress `json:"morning"`
	Evening store.Progress `json:"evening"`
}

type itemDTO struct {
	store.Item
	Remaining int `json:"remaining"`
}

type listResponse struct {
	Language catalog.Language `json:"language"`
	Type     catalog.Type     `json:"type"`
	Items    []itemDTO        `json:"items"`
	Progress store.Progress   `json:"progress"`
}

type resetRequest struct {
	Scope string `json:"scope"`
}

// getProgress handles GET /v1/{lang}/progress.
func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	lang := languageFrom(r)
	snap, err := s.deps.Progress.Current(r.Context(), lang)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := progressResponse{Snapshot: snap}
	for _, typ := range []catalog.Type{catalog.TypeMorning, catalog.TypeEvening} {
		items, err := store.ActiveList(s.deps.Catalog, snap, typ)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		summary := store.Summarize(items, snap.Completions)
		if typ == catalog.TypeMorning {
			resp.Morning = summary
		} else {
			resp.Evening = summary
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// listSupplications handles GET /v1/{lang}/supplications/{type}. Each item
// carries its remaining tap count.
func (s *Server) listSupplications(w http.ResponseWriter, r *http.Request) {
	lang := languageFrom(r)
	typ, err := catalog.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.deps.Progress.Current(r.Context(), lang)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items, err := store.ActiveList(s.deps.Catalog, snap, typ)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	counter := s.tapCounter(lang)
	dtos := make([]itemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, itemDTO{Item: it, Remaining: counter.Remaining(it)})
	}
	writeJSON(w, http.StatusOK, listResponse{
		Language: lang,
		Type:     typ,
		Items:    dtos,
		Progress: store.Summarize(items, snap.Completions),
	})
}

// markCompleted handles POST /v1/{lang}/completions/{id}.
func (s *Server) markCompleted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	completions, err := s.deps.Progress.MarkCompleted(r.Context(), languageFrom(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completions": completions})
}

// resetCompletions handles POST /v1/{lang}/completions/reset.
func (s *Server) resetCompletions(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scope, err := store.ParseScope(req.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang := languageFrom(r)
	completions, err := s.deps.Progress.ResetCompletions(r.Context(), lang, scope)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.tapCounter(lang).Forget()
	writeJSON(w, http.StatusOK, map[string]any{"completions": completions})
}

// tap handles POST /v1/{lang}/taps/{id}.
func (s *Server) tap(w http.ResponseWriter, r *http.Request) {
	lang := languageFrom(r)
	id := chi.URLParam(r, "id")
	snap, err := s.deps.Progress.Current(r.Context(), lang)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	item, ok := s.lookupItem(snap, id)
	if !ok {
		writeError(w, http.StatusNotFound, "supplication not found")
		return
	}
	res, err := s.tapCounter(lang).Tap(r.Context(), item)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// lookupItem resolves id against the bundled tables and the custom list.
func (s *Server) lookupItem(snap store.Snapshot, id string) (store.Item, bool) {
	if sup, typ, ok := s.deps.Catalog.Find(snap.Language, id); ok {
		return store.Item{Supplication: sup, Type: typ, Completed: snap.Completions[id]}, true
	}
	for _, c := range snap.Custom {
		if c.ID == id {
			return store.Item{Supplication: c.Supplication, IsCustom: true, Type: c.Type, Completed: snap.Completions[id]}, true
		}
	}
	return store.Item{}, false
}

// addCustom handles POST /v1/{lang}/custom. Validation failures answer 400
// with the offending field.
func (s *Server) addCustom(w http.ResponseWriter, r *http.Request) {
	var req store.NewCustom
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.deps.Progress.AddCustom(r.Context(), languageFrom(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// removeCustom handles DELETE /v1/{lang}/custom/{id}.
func (s *Server) removeCustom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	lang := languageFrom(r)
	if err := s.deps.Progress.RemoveCustom(r.Context(), lang, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.tapCounter(lang).ForgetID(id)
	w.WriteHeader(http.StatusNoContent)
}
