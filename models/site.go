package models

import (
	"time"

	"github.com/ecotrail/api-go/geo"
)

type SiteType string

const (
	SiteTypeMonument SiteType = "MONUMENT"
	SiteTypeMuseum   SiteType = "MUSEUM"
	SiteTypeNature   SiteType = "NATURE"
)

// Site is a touristic site. Deleting a site deletes its services.
type Site struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        SiteType  `gorm:"size:50;not null" json:"type"`
	Latitude    float64   `gorm:"not null" json:"latitude"`
	Longitude   float64   `gorm:"not null" json:"longitude"`
	Image       string    `gorm:"size:255" json:"image,omitempty"` // storage key, resolved to a URL on read
	EcoScore    int       `gorm:"not null;check:eco_score between 1 and 5" json:"eco_score"`
	CreatedAt   time.Time `json:"created_at"`
	Services    []Service `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s Site) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}
