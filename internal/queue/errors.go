package queue

import "errors"

// ErrQueueFull is returned by Add when the queue is at capacity even
// after an expiry sweep.
var ErrQueueFull = errors.New("queue is full")

// ErrPartitionFull is returned by Add when the named partition is at
// its configured occupancy limit.
var ErrPartitionFull = errors.New("partition is full")

// ErrNotFound is returned by operations addressing an item id that is
// not currently live (queued or in-flight).
var ErrNotFound = errors.New("item not found")
