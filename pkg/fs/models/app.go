package models

import "time"

// App is an installable application record. Apps are owned by a different
// subsystem but resolved through this layer's coalescing cache, keyed
// redundantly by UID, Name, and numeric ID.
type App struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UID         string `gorm:"uniqueIndex;not null;size:36" json:"uid"`
	Name        string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Title       string `gorm:"size:255" json:"title,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Icon is the heavyweight field: the icon-light cache namespace exists so
	// that requests not needing icons never pay for its storage or transfer.
	Icon string `gorm:"type:text" json:"icon,omitempty"`

	IndexURL    string  `gorm:"size:2048" json:"index_url,omitempty"`
	OwnerUserID *uint64 `gorm:"index" json:"owner_user_id,omitempty"`

	ApprovedForListing      bool `gorm:"not null;default:false" json:"approved_for_listing"`
	ApprovedForOpeningItems bool `gorm:"not null;default:false" json:"approved_for_opening_items"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for App.
func (App) TableName() string {
	return "apps"
}

// AppFiletypeAssociation registers an app as a handler for a file extension.
// The extension→app-id index is rebuilt from this table; rows with an empty
// type are skipped (default association rows were created with empty types).
type AppFiletypeAssociation struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AppID uint64 `gorm:"not null;index" json:"app_id"`
	Type  string `gorm:"size:255" json:"type"`
}

// TableName returns the table name for AppFiletypeAssociation.
func (AppFiletypeAssociation) TableName() string {
	return "app_filetype_association"
}
