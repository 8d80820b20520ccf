package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrFull   = errors.New("delivery queue full")
	ErrClosed = errors.New("delivery queue closed")
)
