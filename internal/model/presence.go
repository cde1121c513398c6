// internal/model/presence.go
package model

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "ONLINE"
	PresenceOffline PresenceStatus = "OFFLINE"
)

// UserPresence is the persisted last-active record for a user. The live
// online/offline truth is the in-memory connection registry; this row exists
// so reporting endpoints keep working across process restarts.
type UserPresence struct {
	UserID     int64          `gorm:"primaryKey" json:"userId"`
	Status     PresenceStatus `gorm:"type:varchar(20);default:'OFFLINE';index" json:"status"`
	LastActive time.Time      `gorm:"autoCreateTime" json:"lastActive"`
}

func (UserPresence) TableName() string {
	return "user_presence"
}
