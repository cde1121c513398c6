package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"presence-service/internal/ws"
)

// PresenceRepository is the job's view of presence persistence
type PresenceRepository interface {
	FindOnlineUserIDs(ctx context.Context) ([]int64, error)
	MarkOffline(ctx context.Context, userIDs []int64) error
}

// PresenceSyncJob reconciles persisted presence rows with the live
// registry. Rows left ONLINE by a previous process (crash, restart) have no
// matching registry entry and get flipped OFFLINE; last-active timestamps
// are left untouched. The in-memory registry is never mutated here.
type PresenceSyncJob struct {
	presenceRepo PresenceRepository
	registry     *ws.Registry
	logger       *zap.Logger
}

// NewPresenceSyncJob creates a new PresenceSyncJob instance
func NewPresenceSyncJob(
	presenceRepo PresenceRepository,
	registry *ws.Registry,
	logger *zap.Logger,
) *PresenceSyncJob {
	return &PresenceSyncJob{
		presenceRepo: presenceRepo,
		registry:     registry,
		logger:       logger,
	}
}

// Run executes one reconcile pass
func (j *PresenceSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	onlineRows, err := j.presenceRepo.FindOnlineUserIDs(ctx)
	if err != nil {
		j.logger.Error("Failed to load online presence rows", zap.Error(err))
		return
	}

	var stale []int64
	for _, userID := range onlineRows {
		if !j.registry.IsOnline(userID) {
			stale = append(stale, userID)
		}
	}

	if len(stale) == 0 {
		return
	}

	if err := j.presenceRepo.MarkOffline(ctx, stale); err != nil {
		j.logger.Error("Failed to mark stale presence rows offline",
			zap.Int("count", len(stale)),
			zap.Error(err))
		return
	}

	j.logger.Info("Marked stale presence rows offline",
		zap.Int("count", len(stale)))
}
