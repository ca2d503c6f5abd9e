package models

import "time"

// EventParticipant is the single stored record of a user signed up for an event.
type EventParticipant struct {
	EventID  string    `gorm:"primaryKey;size:36" json:"eventId"`
	UserID   string    `gorm:"primaryKey;size:36;index" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`

	// Relations
	Event *Event `gorm:"foreignKey:EventID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}
