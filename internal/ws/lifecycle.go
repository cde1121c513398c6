// internal/ws/lifecycle.go
package ws

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"presence-service/internal/middleware"
)

// ErrIdentityResolution marks a connect-time identity failure. It is the
// only error the core surfaces to the transport layer; the caller closes
// the connection with a policy-violation reason.
var ErrIdentityResolution = errors.New("identity resolution failed")

// Lifecycle orchestrates registry, directory and dispatcher for the three
// transport events of a connection: connect, inbound message, disconnect.
// The transport invokes events for one connection sequentially; invocations
// for different connections run concurrently.
type Lifecycle struct {
	registry   *Registry
	directory  Directory
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewLifecycle creates a Lifecycle over the shared core components
func NewLifecycle(registry *Registry, directory Directory, dispatcher *Dispatcher, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		registry:   registry,
		directory:  directory,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ResolveIdentity applies the connect-time identity policy: a value that
// parses as an integer is the user id; anything else is treated as an email
// and resolved through the directory.
func (l *Lifecycle) ResolveIdentity(ctx context.Context, raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: missing userId parameter", ErrIdentityResolution)
	}

	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}

	id, err := l.directory.ResolveUserIDByEmail(ctx, raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrIdentityResolution, raw, err)
	}
	return id, nil
}

// OnConnect resolves the connection's identity, registers the handle and
// announces the user online. A resolution failure is returned with no side
// effects; every other failure is logged and swallowed.
func (l *Lifecycle) OnConnect(ctx context.Context, h Handle, rawUser string) (int64, error) {
	userID, err := l.ResolveIdentity(ctx, rawUser)
	if err != nil {
		return 0, err
	}

	l.registry.Register(userID, h)
	middleware.SetOnlineUsers(float64(l.registry.OnlineCount()))

	if err := l.directory.SetLastActive(ctx, userID, time.Now()); err != nil {
		l.logger.Warn("Failed to update last-active on connect",
			zap.Int64("userId", userID),
			zap.Error(err))
	}

	l.dispatcher.BroadcastPresence(ctx, userID, ActivityOnline)

	l.logger.Info("User-status connection registered",
		zap.Int64("userId", userID))
	return userID, nil
}

// OnMessage treats any inbound frame as an activity pulse: refresh
// last-active and re-announce the user online. Payload content is never
// interpreted here.
func (l *Lifecycle) OnMessage(ctx context.Context, userID int64) {
	if err := l.directory.SetLastActive(ctx, userID, time.Now()); err != nil {
		l.logger.Warn("Failed to update last-active on activity",
			zap.Int64("userId", userID),
			zap.Error(err))
	}

	l.dispatcher.BroadcastPresence(ctx, userID, ActivityOnline)
}

// OnDisconnect removes the handle and, only when it was the user's last
// open connection, stamps the offline timestamp and announces the user
// offline.
func (l *Lifecycle) OnDisconnect(ctx context.Context, userID int64, h Handle) {
	stillOnline := l.registry.Unregister(userID, h)
	middleware.SetOnlineUsers(float64(l.registry.OnlineCount()))

	if !stillOnline {
		if err := l.directory.SetOffline(ctx, userID, time.Now()); err != nil {
			l.logger.Warn("Failed to update last-active on disconnect",
				zap.Int64("userId", userID),
				zap.Error(err))
		}
		l.dispatcher.BroadcastPresence(ctx, userID, ActivityOffline)
	}

	l.logger.Info("User-status connection unregistered",
		zap.Int64("userId", userID),
		zap.Bool("stillOnline", stillOnline))
}
