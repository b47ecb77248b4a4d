package models

import (
	"time"

	"gorm.io/gorm"
)

// Store source values
const (
	SourceDatabase    = "database"
	SourceGoogleAPI   = "google_api"
	SourceUserCreated = "user_created"
)

// Store represents a physical store location
// DB: stores
type Store struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"column:name;size:255;not null;index:idx_store_name" json:"name"`
	StoreType   string   `gorm:"column:store_type;size:100;not null;index:idx_store_type" json:"store_type"`
	Category    string   `gorm:"column:category;size:100;not null;index:idx_store_category" json:"category"`
	Description *string  `gorm:"column:description;type:text" json:"description,omitempty"`
	Address     string   `gorm:"column:address;type:text;not null" json:"address"`
	Country     string   `gorm:"column:country;size:100;not null;index:idx_store_country" json:"country"`
	Lat         *float64 `gorm:"column:lat;type:double precision;index:idx_store_lat" json:"lat,omitempty"`
	Lng         *float64 `gorm:"column:lng;type:double precision;index:idx_store_lng" json:"lng,omitempty"`
	Phone       *string  `gorm:"column:phone;size:50" json:"phone,omitempty"`
	Email       *string  `gorm:"column:email;size:255" json:"email,omitempty"`
	Website     *string  `gorm:"column:website;size:500" json:"website,omitempty"`
	Hours       *string  `gorm:"column:hours;type:text" json:"hours,omitempty"`
	Rating      *float64 `gorm:"column:rating;type:double precision" json:"rating,omitempty"`
	Tags        *string  `gorm:"column:tags;type:text" json:"tags,omitempty"`

	// Source is one of database, google_api, user_created.
	Source string `gorm:"column:source;size:20;not null;default:database;index:idx_store_source" json:"source"`

	// PlaceID is the external provider's place identifier, set for
	// google_api stores so write-back can refresh them in place.
	PlaceID *string `gorm:"column:place_id;size:255;uniqueIndex:stores_place_id_key" json:"place_id,omitempty"`

	CreatedByID *uint          `gorm:"column:created_by_id;index:idx_store_created_by" json:"created_by_id,omitempty"`
	LastUpdated time.Time      `gorm:"column:last_updated;not null;autoUpdateTime" json:"last_updated"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;autoCreateTime;index:idx_store_created,sort:desc" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index:idx_store_deleted" json:"-"`

	// Relations
	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

func (Store) TableName() string {
	return "stores"
}

// HasCoordinates reports whether both lat and lng are set.
func (s *Store) HasCoordinates() bool {
	return s.Lat != nil && s.Lng != nil
}
