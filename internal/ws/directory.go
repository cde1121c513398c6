// internal/ws/directory.go
package ws

import (
	"context"
	"time"
)

// Directory is the user-directory collaborator. The core calls it
// synchronously and treats every failure except connect-time identity
// resolution as non-fatal.
type Directory interface {
	// ResolveUserIDByEmail maps an email to a user id; an unknown email is
	// an error, not a retryable condition.
	ResolveUserIDByEmail(ctx context.Context, email string) (int64, error)

	// SetLastActive stamps the user's last-active timestamp.
	SetLastActive(ctx context.Context, userID int64, ts time.Time) error

	// SetOffline stamps last-active and records the user as offline.
	SetOffline(ctx context.Context, userID int64, ts time.Time) error

	// GetLastActive returns the last-active timestamp, or nil when none is
	// known for the user.
	GetLastActive(ctx context.Context, userID int64) (*time.Time, error)
}
