package model

import (
	"time"
)

// Visit location sources. Exactly one applies per visit.
const (
	SourceBrowser = "browser"
	SourceIP      = "ip"
	SourceUnknown = "unknown"
)

// Visit is one recorded access of a Link. Visits are written once and never
// updated; they disappear only when the owning link is deleted.
type Visit struct {
	ID        string    `gorm:"primaryKey;uuid;not null" json:"id"`
	LinkID    string    `gorm:"not null;index:idx_visits_link_id" json:"link_id"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	IPAddress *string   `gorm:"column:ip_address" json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
	City      *string   `json:"city"`
	Region    *string   `json:"region"`
	Country   *string   `json:"country"`
	Source    string    `gorm:"not null;default:unknown" json:"source"`
	VisitedAt time.Time `gorm:"index" json:"visited_at"`
}

func (v *Visit) TableName() string {
	return "visits"
}
