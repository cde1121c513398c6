package model

import "time"

// User is the CRM user directory row. IDs are assigned externally by the
// directory, so the column is a plain bigint rather than a generated key.
type User struct {
	ID        int64      `gorm:"primaryKey" json:"userId"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Name      string     `gorm:"not null;default:''" json:"name"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"deletedAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}
