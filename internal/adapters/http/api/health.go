package api

import "net/http"

type healthResponse struct {
	Status  string `json:"status"`
	Started bool   `json:"started"`
}

// handleHealth handles GET /healthz. It reports 503 until the service is
// started.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.deps.GetStats()
	if !stats.Started {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Started: true})
}
