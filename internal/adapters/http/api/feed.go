package api

import (
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/agora/internal/app"
)

// handleRankFeed handles POST /feed/rank. Query parameters limit,
// diversity and min_reason override the body fields.
func (s *Server) handleRankFeed(w http.ResponseWriter, r *http.Request) {
	var req service.FeedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := applyFeedQuery(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	feed, err := s.deps.RankFeed(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func applyFeedQuery(r *http.Request, req *service.FeedRequest) error {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
		}
		req.Limit = n
	}
	if v := q.Get("diversity"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: diversity must be a boolean", ErrBadRequest)
		}
		req.Diversity = b
	}
	if v := q.Get("min_reason"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: min_reason must be a non-negative integer", ErrBadRequest)
		}
		req.MinReason = &n
	}
	return nil
}
