// Package store is the persistence adapter for user records. The backing
// service is a key-value store with best-effort durability; callers treat it
// as eventually consistent and retry-able.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

var (
	// ErrVerifyFailed means a credit grant was written but could not be read
	// back. The grant must not be reported as success; callers keep their own
	// fallback record of the pending grant.
	ErrVerifyFailed = errors.New("credit grant verification failed")
	// ErrUnavailable wraps transient store faults that exhausted retries.
	ErrUnavailable = errors.New("record store unavailable")
)

// RecordStore persists one UserRecord per session identifier.
type RecordStore interface {
	// Get loads the record for a session, returning a fresh default record
	// for first contact. Expired credit balances are lazily zeroed.
	Get(ctx context.Context, sessionID string) (*models.UserRecord, error)

	// Save writes the full record back and refreshes its retention TTL.
	// Writing the same record twice is safe.
	Save(ctx context.Context, sessionID string, record *models.UserRecord) error

	// AddCredits adds bonus credits with the given expiry and verifies the
	// write by re-reading before reporting success. Returns the resulting
	// total balance.
	AddCredits(ctx context.Context, sessionID string, amount int, expiry time.Time) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
