package model

import (
	"time"
)

// Link is a short tracking link. The ID doubles as the public identifier in
// the short URL, so it is the primary key rather than a surrogate. The
// primary key constraint is what closes the check-then-insert race on
// caller-supplied slugs.
type Link struct {
	ID         string    `gorm:"primaryKey;not null" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	CustomURL  *string   `gorm:"column:custom_url" json:"custom_url"`
	CustomSlug *string   `gorm:"column:custom_slug" json:"custom_slug"`
	CreatedAt  time.Time `json:"created_at"`
}

func (l *Link) TableName() string {
	return "links"
}

// HasDestination reports whether the link forwards to an external URL.
// Links without a destination terminate at the internal tracker page.
func (l *Link) HasDestination() bool {
	return l.CustomURL != nil && *l.CustomURL != ""
}
