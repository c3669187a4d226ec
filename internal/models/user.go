// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents an account on the platform. Users are never hard-deleted;
// IsActive=false disables sign-in and authenticated access.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username         string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Password         string     `gorm:"not null" json:"-"`
	FirstName        string     `gorm:"size:50" json:"firstName"`
	LastName         string     `gorm:"size:50" json:"lastName"`
	Bio              string     `gorm:"type:text" json:"bio"`
	Avatar           string     `json:"avatar"`
	Role             Role       `gorm:"size:20;not null;default:USER" json:"role"`
	IsActive         bool       `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	ResetToken       *string    `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DisplayName returns "First Last" when a name is set, otherwise the username.
func (u *User) DisplayName() string {
	return displayName(u.FirstName, u.LastName, u.Username)
}

// UserSummary is the public author projection embedded in posts and comments.
type UserSummary struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Avatar      string `json:"avatar"`
	DisplayName string `gorm:"-" json:"displayName"`
}

// TableName maps the summary onto the users table.
func (UserSummary) TableName() string {
	return "users"
}

// AfterFind fills the derived display name.
func (u *UserSummary) AfterFind(_ *gorm.DB) error {
	u.DisplayName = displayName(u.FirstName, u.LastName, u.Username)
	return nil
}

func displayName(first, last, username string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return username
	}
	return name
}
