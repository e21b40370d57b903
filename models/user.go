package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Username  string      `gorm:"size:150;unique;not null" json:"username"`
	Password  string      `gorm:"not null" json:"-"` // Don't expose password in JSON
	Role      string      `gorm:"size:20;not null;default:'user'" json:"role"`
	Profile   UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserProfile holds the eco-points and level of exactly one User.
type UserProfile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user"`
	EcoPoints int       `gorm:"not null;default:0" json:"eco_points"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
