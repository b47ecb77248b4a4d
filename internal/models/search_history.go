package models

import (
	"time"
)

// SearchHistory records one resolved search for per-user history and the
// admin analytics dashboard. UserID is nil for anonymous searches.
// DB: search_history
type SearchHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"column:user_id;index:idx_sh_user" json:"user_id,omitempty"`
	Query       string    `gorm:"column:query;size:500;not null;index:idx_sh_query" json:"query"`
	Location    string    `gorm:"column:location;size:255;not null" json:"location"`
	Category    string    `gorm:"column:category;size:100;not null;default:''" json:"category"`
	ResultCount int       `gorm:"column:result_count;not null" json:"result_count"`
	Source      string    `gorm:"column:source;size:20;not null" json:"source"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime;index:idx_sh_created,sort:desc" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SearchHistory) TableName() string {
	return "search_history"
}
