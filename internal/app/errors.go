package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrStopped      = errors.New("service stopped")
	ErrBackpressure = errors.New("update queue is full")
	ErrBadRequest   = errors.New("bad request")
)
