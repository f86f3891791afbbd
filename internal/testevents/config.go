package testevents

import (
	"time"

	service "github.com/okian/agora/internal/app"
	"github.com/okian/agora/internal/domain/model"
)

// Config holds configuration for the update test
type Config struct {
	BaseURL    string        // Base URL of the service
	Decisions  int           // Number of decisions in every update
	Rounds     int           // Number of updates to push
	Duplicates int           // Number of updates redelivered with the same id
	FeedItems  int           // Number of content items to rank
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	DrainWait  time.Duration // Upper bound on waiting for the queue to drain
	OutputFile string        // Output file for generated updates
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// UpdateRequest is the body of POST /decisions/updates.
type UpdateRequest struct {
	ID        string           `json:"id"`
	Decisions []model.Decision `json:"decisions"`
}

// AckResponse represents the response from update submission
type AckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	UpdatesGenerated  int
	UpdatesSubmitted  int
	UpdatesAccepted   int
	UpdatesDuplicate  int
	UpdatesRejected   int
	UpdatesFailed     int
	DecisionsTracked  int
	FlashesActive     int
	FeedItemsRanked   int
	FeedItemsFiltered int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// Service-side shapes decoded from responses.
type (
	serviceStats = service.Stats
	feedRequest  = service.FeedRequest
	feedResponse = service.Feed
)
