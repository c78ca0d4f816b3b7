package cache

import (
	"context"
	"time"
)

// Record states
const (
	StatePending   = "pending"
	StateCompleted = "completed"
)

// Record is what the idempotency middleware remembers about a request key
type Record struct {
	State       string `json:"state"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyStore keeps request records keyed by Idempotency-Key
type IdempotencyStore interface {
	// Reserve atomically claims key as pending. It returns false if the key exists.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the stored record, or nil if none exists
	Get(ctx context.Context, key string) (*Record, error)
	// Complete stores the final response for key
	Complete(ctx context.Context, key string, record Record, ttl time.Duration) error
	// Release drops a pending claim so the request can be retried
	Release(ctx context.Context, key string) error
}
