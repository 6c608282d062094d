package session

import (
	"context"
	"time"
)

// Store keeps per-session values server side
// Values are scoped by session id so no state is shared across callers
type Store interface {
	// Set value for the session under key, overwriting any prior value
	// Value lives ttl at most; zero ttl means no expiry
	Set(ctx context.Context, sessionID string, key string, value string, ttl time.Duration) error

	// Get value bound to the session under key
	// Expired or never set values must return apperrors.ErrSessionValueNotFound
	Get(ctx context.Context, sessionID string, key string) (string, error)

	// Delete value bound to the session under key
	// Deleting a missing value is not an error
	Delete(ctx context.Context, sessionID string, key string) error
}
