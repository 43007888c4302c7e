package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by SubscriptionStore.Get for unknown keys.
var ErrNotFound = errors.New("subscription not found")

// SubscriptionStore is paginated CRUD over subscription records keyed by
// push token. All writes are merges (non-destructive) and deletes are
// idempotent, so overlapping jobs cannot corrupt a record.
type SubscriptionStore interface {
	// ScanPage returns up to pageSize records in stable key order, plus an
	// opaque cursor for the next page ("" when exhausted).
	ScanPage(ctx context.Context, pageSize int, cursor string) ([]Subscription, string, error)

	// GetBatch returns a single bounded snapshot of up to limit records.
	GetBatch(ctx context.Context, limit int) ([]Subscription, error)

	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Subscription, error)

	// MergeUpdate writes only the given fields, leaving all others intact.
	MergeUpdate(ctx context.Context, key string, fields map[string]any) error

	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Delivery failure taxonomy. Wrapped into dispatcher errors so callers can
// classify with errors.Is.
var (
	// ErrInvalidToken marks a token that is permanently unusable. The caller
	// does not delete inline; cleanup belongs to the garbage collector.
	ErrInvalidToken = errors.New("push token permanently invalid")

	// ErrTransientDelivery marks a retry-worthy delivery failure. The jobs do
	// not retry; the next scheduled run retries naturally because no dedup
	// state was written.
	ErrTransientDelivery = errors.New("transient delivery failure")
)

// Notification is one localized push to a single token.
type Notification struct {
	Token string
	Lang  Lang
	Place string
	Assessment
}

// Dispatcher formats and sends push notifications and probes token validity.
type Dispatcher interface {
	// Send delivers the notification. Level 0 is an explicit no-op, not an
	// error. Failures wrap ErrInvalidToken or ErrTransientDelivery when they
	// can be classified.
	Send(ctx context.Context, n Notification) error

	// Probe performs a non-visible dry-run delivery. It returns false only on
	// an unambiguous permanent-failure signal; any other failure (including
	// network errors) reports the token as still valid.
	Probe(ctx context.Context, token string) bool
}

// DispatchRecord is the audit event emitted per dispatch outcome. The token
// is carried as a digest so raw push tokens never leave the service.
type DispatchRecord struct {
	TokenDigest string    `json:"token_digest"`
	Hazard      string    `json:"hazard"`
	Level       int       `json:"level"`
	Value       float64   `json:"value"`
	Lang        string    `json:"lang"`
	Outcome     string    `json:"outcome"`
	At          time.Time `json:"at"`
}

// TokenDigest returns a short stable digest of a push token, so raw tokens
// never appear in audit events or logs.
func TokenDigest(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8])
}
