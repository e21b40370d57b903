package models

import "github.com/ecotrail/api-go/geo"

type ServiceType string

const (
	ServiceTypeHotel      ServiceType = "HOTEL"
	ServiceTypeRestaurant ServiceType = "RESTAURANT"
	ServiceTypeOther      ServiceType = "OTHER"
)

// Service is a hotel, restaurant or other facility attached to a Site.
type Service struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"size:200;not null" json:"name"`
	Type        ServiceType `gorm:"size:50;not null" json:"type"`
	Description string      `gorm:"type:text" json:"description"`
	EcoFriendly bool        `gorm:"not null;default:false" json:"eco_friendly"`
	Latitude    float64     `gorm:"not null" json:"latitude"`
	Longitude   float64     `gorm:"not null" json:"longitude"`
	SiteID      uint        `gorm:"not null;index" json:"site"`
}

func (s Service) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}
