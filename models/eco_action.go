package models

import "time"

// EcoAction is a catalog entry worth a fixed number of eco-points.
type EcoAction struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Points      int       `gorm:"not null" json:"points"`
	CreatedAt   time.Time `json:"created_at"`
}
