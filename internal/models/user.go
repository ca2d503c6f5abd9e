package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	ExternalID   *string           `gorm:"size:191;uniqueIndex" json:"externalId,omitempty"`
	Username     string            `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string            `gorm:"size:191;uniqueIndex;not null" json:"email"`
	PasswordHash string            `gorm:"size:255" json:"-"`
	FirstName    string            `gorm:"size:100" json:"firstName"`
	LastName     string            `gorm:"size:100" json:"lastName"`
	Phone        string            `gorm:"size:50" json:"phone"`
	Bio          string            `gorm:"type:text" json:"bio"`
	Location     string            `gorm:"size:255" json:"location"`
	SocialLinks  map[string]string `gorm:"type:text;serializer:json" json:"socialLinks,omitempty"`
	DateOfBirth  *time.Time        `json:"dateOfBirth,omitempty"`
	ProfileImage string            `gorm:"size:512" json:"profileImage"`
	Role         Role              `gorm:"type:varchar(20);not null" json:"role"`
	IsVerified   bool              `json:"isVerified"`
	IsActive     bool              `json:"isActive"`
	LastLogin    *time.Time        `json:"lastLogin,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`

	// Relations
	Participations []EventParticipant `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate assigns a UUID and the default role.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ExternalIdentity returns the linked external identity, or "".
func (u *User) ExternalIdentity() string {
	if u.ExternalID == nil {
		return ""
	}
	return *u.ExternalID
}
