// internal/ws/dispatcher.go
package ws

import (
	"context"

	"go.uber.org/zap"

	"presence-service/internal/middleware"
)

// Dispatcher fans presence events out to every registered handle. Delivery
// is best-effort and unordered: a handle that fails a write is logged and
// skipped, never unregistered. Membership changes only through the
// lifecycle handler's disconnect path.
type Dispatcher struct {
	registry  *Registry
	directory Directory
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher over the shared registry
func NewDispatcher(registry *Registry, directory Directory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		directory: directory,
		logger:    logger,
	}
}

// BroadcastPresence encodes one payload for the user's state change and
// writes it to every handle in the registry snapshot, the originator
// included.
func (d *Dispatcher) BroadcastPresence(ctx context.Context, userID int64, activity Activity) {
	var lastActive *int64
	ts, err := d.directory.GetLastActive(ctx, userID)
	if err != nil {
		// Broadcast proceeds with a null timestamp rather than failing
		d.logger.Warn("Failed to read last-active for broadcast",
			zap.Int64("userId", userID),
			zap.Error(err))
	} else if ts != nil {
		ms := ts.UnixMilli()
		lastActive = &ms
	}

	event := &PresenceEvent{
		UserID:     userID,
		Activity:   activity,
		LastActive: lastActive,
	}
	payload, err := event.Encode()
	if err != nil {
		d.logger.Error("Failed to encode presence event",
			zap.Int64("userId", userID),
			zap.Error(err))
		return
	}

	for _, h := range d.registry.AllHandles() {
		if !h.IsOpen() {
			continue
		}
		if err := h.SendText(payload); err != nil {
			middleware.RecordBroadcastSendFailure()
			d.logger.Warn("Failed to deliver presence event",
				zap.Int64("userId", userID),
				zap.String("activity", string(activity)),
				zap.Error(err))
		}
	}

	middleware.RecordPresenceBroadcast()
	d.logger.Debug("Presence event broadcast",
		zap.Int64("userId", userID),
		zap.String("activity", string(activity)))
}
