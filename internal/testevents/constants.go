package testevents

import (
	"net/http"
	"time"
)

// HTTP status code constants.
const (
	StatusOK              = http.StatusOK
	StatusAccepted        = http.StatusAccepted
	StatusTooManyRequests = http.StatusTooManyRequests
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultDrainWait     = 30 * time.Second
	DrainPollInterval    = 100 * time.Millisecond
	PercentageMultiplier = 100
)

// Submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultRejected  = "rejected"
	resultFailed    = "failed"
)
