// internal/ws/event.go
package ws

import "encoding/json"

type Activity string

const (
	ActivityOnline  Activity = "online"
	ActivityOffline Activity = "offline"
)

// PresenceEvent is the broadcast wire payload. LastActive is a pointer so
// the encoded value is either epoch milliseconds or the bare token null;
// clients depend on that exact shape.
type PresenceEvent struct {
	UserID     int64    `json:"userId"`
	Activity   Activity `json:"activity"`
	LastActive *int64   `json:"lastActive"`
}

// Encode serializes the event. Every broadcast payload goes through here so
// the wire shape has a single owner.
func (e *PresenceEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
