package models

import "time"

// UserAction records one completion of an EcoAction by a profile.
// idx_user_action_daily allows a single completion per profile, action and
// calendar day.
type UserAction struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserProfileID uint      `gorm:"not null;uniqueIndex:idx_user_action_daily,priority:1" json:"user_profile"`
	EcoActionID   uint      `gorm:"not null;index;uniqueIndex:idx_user_action_daily,priority:2" json:"action"`
	CompletedAt   time.Time `gorm:"not null;index" json:"completed_at"`
	CompletedOn   time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_action_daily,priority:3" json:"-"`
	Verified      bool      `gorm:"not null;default:false" json:"verified"`

	UserProfile UserProfile `gorm:"foreignKey:UserProfileID;constraint:OnDelete:CASCADE" json:"-"`
	EcoAction   EcoAction   `gorm:"foreignKey:EcoActionID;constraint:OnDelete:CASCADE" json:"-"`
}

// CalendarDay returns the date of t in t's location, encoded as midnight UTC
// so the value survives any timezone conversion on its way to a date column.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
