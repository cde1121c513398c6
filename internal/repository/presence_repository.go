package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"presence-service/internal/model"
)

// PresenceRepository handles persisted presence rows
type PresenceRepository struct {
	db *gorm.DB
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// SetLastActive upserts the last-active timestamp and marks the row ONLINE
func (r *PresenceRepository) SetLastActive(ctx context.Context, userID int64, ts time.Time) error {
	presence := &model.UserPresence{
		UserID:     userID,
		Status:     model.PresenceOnline,
		LastActive: ts,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_active"}),
	}).Create(presence).Error
}

// SetOffline upserts the last-active timestamp and marks the row OFFLINE
func (r *PresenceRepository) SetOffline(ctx context.Context, userID int64, ts time.Time) error {
	presence := &model.UserPresence{
		UserID:     userID,
		Status:     model.PresenceOffline,
		LastActive: ts,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_active"}),
	}).Create(presence).Error
}

// Get returns the presence row for a user
func (r *PresenceRepository) Get(ctx context.Context, userID int64) (*model.UserPresence, error) {
	var presence model.UserPresence
	err := r.db.WithContext(ctx).First(&presence, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &presence, nil
}

// MarkOffline flips the status column for the given users without touching
// their last-active timestamps
func (r *PresenceRepository) MarkOffline(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.UserPresence{}).
		Where("user_id IN ?", userIDs).
		Update("status", model.PresenceOffline).Error
}

// FindOnlineUserIDs returns the IDs of all rows currently marked ONLINE
func (r *PresenceRepository) FindOnlineUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.UserPresence{}).
		Where("status = ?", model.PresenceOnline).
		Pluck("user_id", &ids).Error
	return ids, err
}
