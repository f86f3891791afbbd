package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleFlash handles GET /flash/{id}.
func (s *Server) handleFlash(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := s.deps.FlashState(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: no active flash for %q", ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleActiveFlashes handles GET /flash.
func (s *Server) handleActiveFlashes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.ActiveFlashes())
}
