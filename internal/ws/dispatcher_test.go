package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeDirectory is a test double for the user directory collaborator
type fakeDirectory struct {
	mu            sync.Mutex
	idsByEmail    map[string]int64
	emailLookups  int
	lastActive    map[int64]time.Time
	lastActiveErr error
	setErr        error
	setCalls      []int64
	offlineCalls  []int64
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		idsByEmail: make(map[string]int64),
		lastActive: make(map[int64]time.Time),
	}
}

func (d *fakeDirectory) ResolveUserIDByEmail(ctx context.Context, email string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emailLookups++
	id, ok := d.idsByEmail[email]
	if !ok {
		return 0, fmt.Errorf("no user for email %q", email)
	}
	return id, nil
}

func (d *fakeDirectory) SetLastActive(ctx context.Context, userID int64, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return d.setErr
	}
	d.lastActive[userID] = ts
	d.setCalls = append(d.setCalls, userID)
	return nil
}

func (d *fakeDirectory) SetOffline(ctx context.Context, userID int64, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return d.setErr
	}
	d.lastActive[userID] = ts
	d.offlineCalls = append(d.offlineCalls, userID)
	return nil
}

func (d *fakeDirectory) GetLastActive(ctx context.Context, userID int64) (*time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastActiveErr != nil {
		return nil, d.lastActiveErr
	}
	ts, ok := d.lastActive[userID]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func TestDispatcher_FanOutReachesAllHandles(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()
	ts := time.UnixMilli(1718000000000)
	directory.lastActive[7] = ts

	h1 := newFakeHandle()
	h2 := newFakeHandle()
	h3 := newFakeHandle()
	registry.Register(7, h1)
	registry.Register(7, h2)
	registry.Register(9, h3)

	d := NewDispatcher(registry, directory, zap.NewNop())
	d.BroadcastPresence(context.Background(), 7, ActivityOnline)

	want := `{"userId":7,"activity":"online","lastActive":1718000000000}`
	for _, h := range []*fakeHandle{h1, h2, h3} {
		sent := h.sent()
		assert.Len(t, sent, 1)
		assert.Equal(t, want, string(sent[0]))
	}
}

func TestDispatcher_UnregisteredHandleGetsNothing(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()

	registered := newFakeHandle()
	outsider := newFakeHandle()
	registry.Register(1, registered)

	d := NewDispatcher(registry, directory, zap.NewNop())
	d.BroadcastPresence(context.Background(), 1, ActivityOnline)

	assert.Len(t, registered.sent(), 1)
	assert.Empty(t, outsider.sent())
}

func TestDispatcher_SendFailureDoesNotAbortOrUnregister(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()

	broken := newFakeHandle()
	broken.sendErr = errors.New("connection reset")
	healthy := newFakeHandle()
	registry.Register(1, broken)
	registry.Register(2, healthy)

	d := NewDispatcher(registry, directory, zap.NewNop())
	d.BroadcastPresence(context.Background(), 1, ActivityOnline)

	// Remaining handles still get the event
	assert.Len(t, healthy.sent(), 1)
	// Membership bookkeeping is untouched by write failures
	assert.True(t, registry.IsOnline(1))
	assert.Len(t, registry.AllHandles(), 2)
}

func TestDispatcher_ClosedHandleIsSkipped(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()

	closed := newFakeHandle()
	closed.open = false
	registry.Register(1, closed)

	d := NewDispatcher(registry, directory, zap.NewNop())
	d.BroadcastPresence(context.Background(), 1, ActivityOffline)

	assert.Empty(t, closed.sent())
	// Skipping a write never removes the handle
	assert.True(t, registry.IsOnline(1))
}

func TestDispatcher_DirectoryFailureBroadcastsNullTimestamp(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()
	directory.lastActiveErr = errors.New("directory unreachable")

	h := newFakeHandle()
	registry.Register(7, h)

	d := NewDispatcher(registry, directory, zap.NewNop())
	d.BroadcastPresence(context.Background(), 7, ActivityOnline)

	sent := h.sent()
	assert.Len(t, sent, 1)
	assert.Equal(t, `{"userId":7,"activity":"online","lastActive":null}`, string(sent[0]))
}

func TestDispatcher_EmptyRegistryIsNoop(t *testing.T) {
	registry := NewRegistry()
	directory := newFakeDirectory()

	d := NewDispatcher(registry, directory, zap.NewNop())
	assert.NotPanics(t, func() {
		d.BroadcastPresence(context.Background(), 7, ActivityOffline)
	})
}
