package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"presence-service/internal/model"
)

// ErrUserNotFound is returned when an email resolves to no active user
var ErrUserNotFound = errors.New("user not found")

const (
	lastActiveKeyPrefix = "presence:last_active:"
	lastActiveTTL       = 24 * time.Hour
)

// UserRepository is the directory's view of user data access
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// PresenceRepository is the directory's view of presence persistence
type PresenceRepository interface {
	SetLastActive(ctx context.Context, userID int64, ts time.Time) error
	SetOffline(ctx context.Context, userID int64, ts time.Time) error
	Get(ctx context.Context, userID int64) (*model.UserPresence, error)
}

// DirectoryService is the user-directory collaborator of the presence core:
// email-to-id resolution plus get/set of last-active timestamps. Last-active
// values are written through to redis so broadcast lookups rarely touch the
// database; redis being down degrades to plain database reads.
type DirectoryService struct {
	users    UserRepository
	presence PresenceRepository
	redis    *redis.Client
	logger   *zap.Logger
}

// NewDirectoryService creates a DirectoryService. redisClient may be nil.
func NewDirectoryService(
	users UserRepository,
	presence PresenceRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *DirectoryService {
	return &DirectoryService{
		users:    users,
		presence: presence,
		redis:    redisClient,
		logger:   logger,
	}
}

// ResolveUserIDByEmail maps an email address to a user id
func (s *DirectoryService) ResolveUserIDByEmail(ctx context.Context, email string) (int64, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("resolve user by email: %w", err)
	}
	return user.ID, nil
}

// SetLastActive stamps the user's last-active timestamp and marks the
// persisted row online
func (s *DirectoryService) SetLastActive(ctx context.Context, userID int64, ts time.Time) error {
	if err := s.presence.SetLastActive(ctx, userID, ts); err != nil {
		return fmt.Errorf("set last-active: %w", err)
	}
	s.cacheLastActive(ctx, userID, ts)
	return nil
}

// SetOffline stamps the user's last-active timestamp and marks the
// persisted row offline
func (s *DirectoryService) SetOffline(ctx context.Context, userID int64, ts time.Time) error {
	if err := s.presence.SetOffline(ctx, userID, ts); err != nil {
		return fmt.Errorf("set offline: %w", err)
	}
	s.cacheLastActive(ctx, userID, ts)
	return nil
}

// GetLastActive returns the user's last-active timestamp, or nil when the
// user has never been seen
func (s *DirectoryService) GetLastActive(ctx context.Context, userID int64) (*time.Time, error) {
	if ts := s.cachedLastActive(ctx, userID); ts != nil {
		return ts, nil
	}

	row, err := s.presence.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last-active: %w", err)
	}

	ts := row.LastActive
	return &ts, nil
}

func (s *DirectoryService) cacheLastActive(ctx context.Context, userID int64, ts time.Time) {
	if s.redis == nil {
		return
	}

	key := lastActiveKeyPrefix + strconv.FormatInt(userID, 10)
	if err := s.redis.Set(ctx, key, ts.UnixMilli(), lastActiveTTL).Err(); err != nil {
		s.logger.Warn("Failed to cache last-active",
			zap.Int64("userId", userID),
			zap.Error(err))
	}
}

func (s *DirectoryService) cachedLastActive(ctx context.Context, userID int64) *time.Time {
	if s.redis == nil {
		return nil
	}

	key := lastActiveKeyPrefix + strconv.FormatInt(userID, 10)
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Failed to read cached last-active",
				zap.Int64("userId", userID),
				zap.Error(err))
		}
		return nil
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	ts := time.UnixMilli(ms)
	return &ts
}
