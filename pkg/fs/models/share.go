package models

import "time"

// Share grants a recipient visibility of a single entry owned by another
// user. Shares are created and destroyed by the sharing feature; this layer
// only consumes them for descendant enumeration and permission checks.
type Share struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FSEntryID       uint64    `gorm:"column:fsentry_id;not null;uniqueIndex:idx_share_entry_recipient" json:"fsentry_id"`
	OwnerUserID     uint64    `gorm:"not null;index" json:"owner_user_id"`
	RecipientUserID uint64    `gorm:"not null;uniqueIndex:idx_share_entry_recipient;index" json:"recipient_user_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Share.
func (Share) TableName() string {
	return "share"
}

// SharingUser pairs a sharing owner's id with their username, as produced by
// the distinct-owners join used to graft synthetic directories onto "/".
type SharingUser struct {
	OwnerUserID uint64 `json:"owner_user_id"`
	Username    string `json:"username"`
}
