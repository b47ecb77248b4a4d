package models

import (
	"time"
)

// User represents the users table
// DB: users
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"column:email;size:255;not null;uniqueIndex:users_email_key" json:"email"`
	Password   string     `gorm:"column:password;size:255;not null" json:"-"`
	Name       string     `gorm:"column:name;size:100;not null" json:"name"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsStaff    bool       `gorm:"column:is_staff;not null;default:false" json:"is_staff"`
	DateJoined time.Time  `gorm:"column:date_joined;not null;autoCreateTime" json:"date_joined"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`

	// Relations
	Stores     []Store         `gorm:"foreignKey:CreatedByID" json:"stores,omitempty"`
	SearchLogs []SearchHistory `gorm:"foreignKey:UserID" json:"search_logs,omitempty"`
}

func (User) TableName() string {
	return "users"
}
