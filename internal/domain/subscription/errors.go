package subscription

import "errors"

// Sentinel errors for the coordinator.
var (
	ErrAlreadyStarted = errors.New("coordinator already started")
	ErrNoSource       = errors.New("coordinator has no decision source")
	ErrClosed         = errors.New("coordinator closed")
)
