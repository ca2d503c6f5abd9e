package dto

import (
	"time"

	"github.com/yukikurage/event-platform-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash is never included.
type UserDTO struct {
	ID           string            `json:"id"`
	ExternalID   string            `json:"externalId,omitempty"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Phone        string            `json:"phone"`
	Bio          string            `json:"bio"`
	Location     string            `json:"location"`
	SocialLinks  map[string]string `json:"socialLinks"`
	DateOfBirth  *time.Time        `json:"dateOfBirth,omitempty"`
	ProfileImage string            `json:"profileImage"`
	Role         models.Role       `json:"role"`
	IsVerified   bool              `json:"isVerified"`
	IsActive     bool              `json:"isActive"`
	LastLogin    *time.Time        `json:"lastLogin,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ProfileDTO is the caller's own profile with derived event views
type ProfileDTO struct {
	UserDTO
	EventsSignedUp []EventSummaryDTO `json:"eventsSignedUp"`
	EventsManaged  []EventSummaryDTO `json:"eventsManaged,omitempty"`
}

// LoginUserDTO is the minimal profile echoed by login
type LoginUserDTO struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string      `json:"msg"`
	Token   string      `json:"token"`
	User    interface{} `json:"user"`
}

// UserMessageResponse pairs a confirmation message with a user
type UserMessageResponse struct {
	Message string  `json:"msg"`
	User    UserDTO `json:"user"`
}

// MessageResponse is a bare confirmation
type MessageResponse struct {
	Message string `json:"msg"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	socialLinks := user.SocialLinks
	if socialLinks == nil {
		socialLinks = map[string]string{}
	}

	return UserDTO{
		ID:           user.ID,
		ExternalID:   user.ExternalIdentity(),
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Phone:        user.Phone,
		Bio:          user.Bio,
		Location:     user.Location,
		SocialLinks:  socialLinks,
		DateOfBirth:  user.DateOfBirth,
		ProfileImage: user.ProfileImage,
		Role:         user.Role,
		IsVerified:   user.IsVerified,
		IsActive:     user.IsActive,
		LastLogin:    user.LastLogin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, user := range users {
		dtos[i] = ToUserDTO(user)
	}
	return dtos
}

// ToLoginUserDTO converts a User model to LoginUserDTO
func ToLoginUserDTO(user models.User) LoginUserDTO {
	return LoginUserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
