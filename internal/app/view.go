package service

import (
	"time"

	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/internal/domain/reason"
	"github.com/okian/agora/internal/domain/scoring"
	"github.com/okian/agora/internal/domain/status"
	"github.com/okian/agora/internal/domain/subscription"
	"github.com/okian/agora/internal/domain/trend"
)

// DecisionView is the derived state of one decision, recomputed on every
// evaluation.
type DecisionView struct {
	ID            string             `json:"id"`
	Type          model.DecisionType `json:"type"`
	Status        status.Status      `json:"status"`
	IsClosed      bool               `json:"is_closed"`
	IsClosingSoon bool               `json:"is_closing_soon"`
	IsUrgent      bool               `json:"is_urgent"`
	Remaining     string             `json:"remaining"`
	Trend         trend.Trend        `json:"trend"`
	Shares        trend.Shares       `json:"shares"`
	Turnout       *int               `json:"turnout,omitempty"`
	QuorumReached *bool              `json:"quorum_reached,omitempty"`
	Flash         *flash.State       `json:"flash,omitempty"`
}

func (s *Service) view(now time.Time, d *model.Decision) DecisionView {
	derived := status.Derive(now, d)
	v := DecisionView{
		ID:            d.ID,
		Type:          d.Type,
		Status:        derived.Status,
		IsClosed:      derived.IsClosed,
		IsClosingSoon: derived.IsClosingSoon,
		IsUrgent:      derived.IsUrgent,
		Remaining:     status.FormatRemaining(derived.Remaining),
		Trend:         trend.ForDecision(d),
		Shares:        trend.Breakdown(d.Tally),
	}
	if d.Eligible > 0 {
		turnout := trend.Turnout(d.Voted, d.Eligible)
		reached := trend.IsQuorumReached(turnout, s.quorum)
		v.Turnout, v.QuorumReached = &turnout, &reached
	}
	if st, ok := s.coordinator.Flash().Get(d.ID); ok {
		v.Flash = &st
	}
	return v
}

// Evaluation is the outcome of EvaluateDecisions.
type Evaluation struct {
	Decisions []DecisionView      `json:"decisions"`
	Events    subscription.Events `json:"events"`
}

// PushResult reports how a pushed update was handled.
type PushResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// FeedRequest asks for a ranked feed.
type FeedRequest struct {
	Items []model.ContentItem `json:"items"`
	User  model.UserContext   `json:"user"`
	// Limit caps the result; zero means the configured maximum.
	Limit int `json:"limit"`
	// Diversity applies the same-type penalty after sorting.
	Diversity bool `json:"diversity"`
	// MinReason overrides the configured minimum reason strength.
	MinReason *int `json:"min_reason,omitempty"`
}

// FeedItem is one ranked and explained feed entry.
type FeedItem struct {
	scoring.ScoredContent
	Reason reason.Reason `json:"reason"`
	Label  string        `json:"label"`
}

// Feed is the outcome of RankFeed.
type Feed struct {
	Items    []FeedItem `json:"items"`
	Filtered int        `json:"filtered"`
}

// Stats summarizes service state for monitoring.
type Stats struct {
	Started       bool     `json:"started"`
	Polling       bool     `json:"polling"`
	Tracked       []string `json:"tracked"`
	ActiveFlashes int      `json:"active_flashes"`
	QueueLength   int      `json:"queue_length"`
	QueueCapacity int      `json:"queue_capacity"`
	DedupeSize    int64    `json:"dedupe_size"`
}
