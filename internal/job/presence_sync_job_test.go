package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"presence-service/internal/ws"
)

// MockPresenceRepository is a mock implementation of PresenceRepository
type MockPresenceRepository struct {
	FindOnlineUserIDsFunc func(ctx context.Context) ([]int64, error)
	MarkOfflineFunc       func(ctx context.Context, userIDs []int64) error
}

func (m *MockPresenceRepository) FindOnlineUserIDs(ctx context.Context) ([]int64, error) {
	if m.FindOnlineUserIDsFunc != nil {
		return m.FindOnlineUserIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockPresenceRepository) MarkOffline(ctx context.Context, userIDs []int64) error {
	if m.MarkOfflineFunc != nil {
		return m.MarkOfflineFunc(ctx, userIDs)
	}
	return nil
}

// stubHandle satisfies ws.Handle for registry seeding
type stubHandle struct{}

func (stubHandle) IsOpen() bool            { return true }
func (stubHandle) SendText([]byte) error   { return nil }
func (stubHandle) Close(int, string) error { return nil }

func TestPresenceSyncJob_MarksStaleRowsOffline(t *testing.T) {
	registry := ws.NewRegistry()
	registry.Register(1, stubHandle{})

	var marked []int64
	repo := &MockPresenceRepository{
		FindOnlineUserIDsFunc: func(ctx context.Context) ([]int64, error) {
			return []int64{1, 2, 3}, nil
		},
		MarkOfflineFunc: func(ctx context.Context, userIDs []int64) error {
			marked = userIDs
			return nil
		},
	}

	NewPresenceSyncJob(repo, registry, zap.NewNop()).Run()

	// User 1 holds a live handle; 2 and 3 are orphaned rows
	assert.Equal(t, []int64{2, 3}, marked)
}

func TestPresenceSyncJob_NoStaleRows(t *testing.T) {
	registry := ws.NewRegistry()
	registry.Register(1, stubHandle{})

	markCalled := false
	repo := &MockPresenceRepository{
		FindOnlineUserIDsFunc: func(ctx context.Context) ([]int64, error) {
			return []int64{1}, nil
		},
		MarkOfflineFunc: func(ctx context.Context, userIDs []int64) error {
			markCalled = true
			return nil
		},
	}

	NewPresenceSyncJob(repo, registry, zap.NewNop()).Run()
	assert.False(t, markCalled)
}

func TestPresenceSyncJob_RepoErrorIsLoggedNotFatal(t *testing.T) {
	repo := &MockPresenceRepository{
		FindOnlineUserIDsFunc: func(ctx context.Context) ([]int64, error) {
			return nil, errors.New("db down")
		},
	}

	assert.NotPanics(t, func() {
		NewPresenceSyncJob(repo, ws.NewRegistry(), zap.NewNop()).Run()
	})
}
