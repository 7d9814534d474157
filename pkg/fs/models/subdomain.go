package models

import "time"

// Subdomain maps a published website to the directory it is served from.
// The navigator batch-checks RootDirID against sibling ids to annotate
// directory listings with has_website.
type Subdomain struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Subdomain string    `gorm:"uniqueIndex;not null;size:255" json:"subdomain"`
	RootDirID *uint64   `gorm:"index" json:"root_dir_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Subdomain.
func (Subdomain) TableName() string {
	return "subdomains"
}
