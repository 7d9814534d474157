package models

import (
	"path"
	"strings"
	"time"
)

// FSEntry is a node in the filesystem forest. Each user owns one or more
// trees rooted at entries with a nil ParentUID; every other entry references
// its parent by UUID. Entries are created with an existing parent, so parent
// chains are acyclic by construction and always terminate at a root.
//
// The numeric ID is internal to the store; the UUID is the stable,
// external-facing identity used in paths, signed URLs, and the API.
type FSEntry struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID      string  `gorm:"uniqueIndex;not null;size:36" json:"uid"`
	ParentUID *string `gorm:"index;size:36" json:"parent_uid,omitempty"`
	UserID    uint64  `gorm:"index;not null" json:"user_id"`
	Name      string  `gorm:"not null;size:767" json:"name"`

	// Path is the denormalized full path. It is nullable and lazily
	// populated: resolution falls back to a segment walk when absent, and
	// rename/move updates it transactionally together with Name/ParentUID.
	Path *string `gorm:"index;size:4096" json:"path,omitempty"`

	IsDir bool `gorm:"not null;default:false" json:"is_dir"`

	// IsPublic is tri-state: nil means "inherited from the nearest ancestor
	// that explicitly sets it", which path resolution tracks as a running
	// flag during the segment walk.
	IsPublic *bool `json:"is_public,omitempty"`

	IsShortcut bool    `gorm:"not null;default:false" json:"is_shortcut"`
	ShortcutTo *uint64 `json:"shortcut_to,omitempty"`
	Immutable  bool    `gorm:"not null;default:false" json:"immutable"`

	// PublicToken is a capability token for anonymous public access.
	PublicToken *string `gorm:"size:36" json:"public_token,omitempty"`

	Size     int64     `gorm:"not null;default:0" json:"size"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
	Modified time.Time `gorm:"autoUpdateTime" json:"modified"`
	Accessed time.Time `json:"accessed"`

	// IsRoot marks the synthetic, non-persisted pseudo-directories that the
	// navigator grafts onto "/" for users who shared entries with the
	// requester. Synthetic roots are immutable and readable only.
	IsRoot bool `gorm:"-" json:"-"`

	// Annotations populated by the navigator on enumeration.
	HasWebsite  bool   `gorm:"-" json:"has_website,omitempty"`
	ContentType string `gorm:"-" json:"type,omitempty"`
}

// TableName returns the table name for FSEntry.
func (FSEntry) TableName() string {
	return "fsentries"
}

// EffectivePublic resolves the tri-state IsPublic against an inherited value.
func (e *FSEntry) EffectivePublic(inherited bool) bool {
	if e.IsPublic == nil {
		return inherited
	}
	return *e.IsPublic
}

// Ext returns the lowercase file extension of the entry name, including the
// leading dot. Directories get the synthetic ".directory" extension so that
// filetype associations can target them.
func (e *FSEntry) Ext() string {
	name := e.LookupName()
	if e.IsDir {
		return ".directory"
	}
	return path.Ext(name)
}

// LookupName returns the lowercased name used for suggestion matching.
func (e *FSEntry) LookupName() string {
	return strings.ToLower(e.Name)
}

// SyntheticRoot builds the pseudo-directory grafted onto "/" for a user who
// has shared at least one entry with the requester. It carries no identity
// and is never persisted.
func SyntheticRoot(username string) *FSEntry {
	return &FSEntry{
		Name:      username,
		IsDir:     true,
		Immutable: true,
		IsRoot:    true,
	}
}
