package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryMusic         Category = "Music"
	CategoryArts          Category = "Arts"
	CategorySocial        Category = "Social"
	CategoryHealth        Category = "Health & Wellness"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryFoodDrink     Category = "Food & Drink"
	CategoryConference    Category = "Conference"
)

// Categories lists every accepted event category.
var Categories = []Category{
	CategoryMusic,
	CategoryArts,
	CategorySocial,
	CategoryHealth,
	CategoryEducation,
	CategoryEntertainment,
	CategoryFoodDrink,
	CategoryConference,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusInactive  EventStatus = "inactive"
	EventStatusCompleted EventStatus = "completed"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusActive, EventStatusInactive, EventStatusCompleted:
		return true
	}
	return false
}

type OrganizerContact struct {
	Email string `gorm:"size:191;not null" json:"email"`
	Phone string `gorm:"size:50;not null" json:"phone"`
}

type Event struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Description      string           `gorm:"type:text;not null" json:"description"`
	Date             time.Time        `gorm:"not null;index" json:"date"`
	Location         string           `gorm:"size:255;not null" json:"location"`
	Category         Category         `gorm:"type:varchar(50);not null;index" json:"category"`
	Keywords         []string         `gorm:"type:text;serializer:json" json:"keywords"`
	Tags             []string         `gorm:"type:text;serializer:json" json:"tags"`
	Image            string           `gorm:"size:512" json:"image"`
	EventURL         string           `gorm:"size:512" json:"eventURL"`
	MaxParticipants  int              `gorm:"not null" json:"maxParticipants"`
	Status           EventStatus      `gorm:"type:varchar(20);not null" json:"status"`
	OrganizerContact OrganizerContact `gorm:"embedded;embeddedPrefix:organizer_" json:"organizerContact"`
	CreatedBy        string           `gorm:"size:36;not null;index" json:"createdBy"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`

	// Relations
	Creator      *User              `gorm:"foreignKey:CreatedBy" json:"-"`
	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"-"`
}

// BeforeCreate assigns a UUID and the default status.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = EventStatusActive
	}
	return nil
}

// ParticipantIDs returns the ids of the users signed up for the event.
func (e *Event) ParticipantIDs() []string {
	ids := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasParticipant reports whether userID is signed up for the event.
func (e *Event) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the event has reached maxParticipants.
func (e *Event) IsFull() bool {
	return len(e.Participants) >= e.MaxParticipants
}
