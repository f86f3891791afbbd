package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/agora/internal/domain/model"
)

type evaluateRequest struct {
	Decisions []model.Decision `json:"decisions"`
}

type updateRequest struct {
	ID        string           `json:"id"`
	Decisions []model.Decision `json:"decisions"`
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

func validateDecisions(decisions []model.Decision) error {
	for i := range decisions {
		d := &decisions[i]
		switch {
		case strings.TrimSpace(d.ID) == "":
			return fmt.Errorf("%w: decisions[%d]: missing id", ErrBadRequest, i)
		case !d.Type.Valid():
			return fmt.Errorf("%w: decisions[%d]: unknown type %q", ErrBadRequest, i, d.Type)
		case !d.Result.Valid():
			return fmt.Errorf("%w: decisions[%d]: unknown result %q", ErrBadRequest, i, d.Result)
		case d.EndsAt.IsZero():
			return fmt.Errorf("%w: decisions[%d]: missing ends_at", ErrBadRequest, i)
		case d.Tally.Support < 0 || d.Tally.Oppose < 0 || d.Tally.Abstain < 0:
			return fmt.Errorf("%w: decisions[%d]: negative tally", ErrBadRequest, i)
		case d.Eligible < 0 || d.Voted < 0:
			return fmt.Errorf("%w: decisions[%d]: negative turnout", ErrBadRequest, i)
		}
	}
	return nil
}

// handleEvaluate handles POST /decisions/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := validateDecisions(req.Decisions); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.EvaluateDecisions(r.Context(), req.Decisions))
}

// handlePushUpdate handles POST /decisions/updates. Accepted updates are
// applied asynchronously; redelivered ids are acknowledged as duplicates.
func (s *Server) handlePushUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := validateDecisions(req.Decisions); err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := s.deps.PushUpdate(r.Context(), model.Update{ID: req.ID, Decisions: req.Decisions})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: res.ID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: res.ID})
}
