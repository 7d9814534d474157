package models

import "time"

// User is a tenant of the filesystem. Every user owns a forest of entries
// whose roots have a nil parent; the navigator maps "/{username}" to either
// the user's own tree or, for other users, a flattened view of entries they
// shared with the requester.
type User struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         string     `gorm:"uniqueIndex;not null;size:36" json:"uuid"`
	Username     string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Email        string     `gorm:"size:255" json:"email,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "user"
}
