// internal/ws/registry.go
package ws

import "sync"

// Registry tracks which users currently hold live connections. It is the
// only mutable shared state owned by the presence core: a mutex-guarded map
// of user id to connection set, with the invariant that a user has an entry
// iff at least one of its handles is registered.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]map[Handle]struct{}
}

// NewRegistry creates an empty Registry. One instance is constructed at
// startup and shared by the lifecycle handler and dispatcher.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[int64]map[Handle]struct{}),
	}
}

// Register adds a handle to the user's connection set, creating the set on
// first connect. Safe for concurrent use, including multiple handles of the
// same user (browser tabs, devices).
func (r *Registry) Register(userID int64, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == nil {
		r.conns[userID] = make(map[Handle]struct{})
	}
	r.conns[userID][h] = struct{}{}
}

// Unregister removes a handle from the user's set and deletes the user
// entry when the set empties. Removing an unknown handle is a no-op. The
// return reports whether the user still holds at least one registered
// handle, evaluated under the removal's lock: concurrent disconnects of the
// same user's last handles see exactly one false.
func (r *Registry) Unregister(userID int64, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	delete(set, h)
	if len(set) == 0 {
		delete(r.conns, userID)
		return false
	}
	return true
}

// IsOnline reports whether the user holds at least one registered handle
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns[userID]) > 0
}

// AllHandles returns a snapshot of every registered handle across all
// users. Fan-out iterates the copy, so concurrent register/unregister during
// a broadcast pass is safe.
func (r *Registry) AllHandles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]Handle, 0, len(r.conns))
	for _, set := range r.conns {
		for h := range set {
			handles = append(handles, h)
		}
	}
	return handles
}

// OnlineUsers returns the ids of all users with at least one live handle
func (r *Registry) OnlineUsers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]int64, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// OnlineCount returns the number of distinct online users
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
