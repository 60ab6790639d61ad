package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles. Anything else is rejected at the API boundary.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultAvatarURL is assigned at registration until the user uploads their own.
const DefaultAvatarURL = "/avatars/placeholder.png"

// User is a registered account. The password is only ever stored as a bcrypt
// hash and never serialized.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Hidden from JSON
	Role         string         `gorm:"type:varchar(20);default:'user'" json:"role"`
	Phone        string         `json:"phone,omitempty"`
	Bio          string         `json:"bio,omitempty"`
	AvatarURL    string         `json:"avatarUrl"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidRole reports whether s is one of the known account roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin
}
