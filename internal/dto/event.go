package dto

import (
	"time"

	"github.com/yukikurage/event-platform-api/internal/models"
)

// CreatorDTO is the expanded createdBy reference of an event
type CreatorDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
}

// EventDTO represents an event in API responses
type EventDTO struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Date             time.Time               `json:"date"`
	Location         string                  `json:"location"`
	Category         models.Category         `json:"category"`
	Keywords         []string                `json:"keywords"`
	Tags             []string                `json:"tags"`
	Image            string                  `json:"image"`
	EventURL         string                  `json:"eventURL"`
	MaxParticipants  int                     `json:"maxParticipants"`
	Participants     []string                `json:"participants"`
	Status           models.EventStatus      `json:"status"`
	OrganizerContact models.OrganizerContact `json:"organizerContact"`
	CreatedBy        CreatorDTO              `json:"createdBy"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// EventSummaryDTO is the short form used in confirmations and profiles
type EventSummaryDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

// EventListResponse represents a paginated list of events
type EventListResponse struct {
	Events      []EventDTO `json:"events"`
	TotalEvents int64      `json:"totalEvents"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

// ParticipationResponse confirms a signup or unsignup
type ParticipationResponse struct {
	Message string          `json:"msg"`
	Event   EventSummaryDTO `json:"event"`
}

// ToEventDTO converts an Event model to EventDTO
func ToEventDTO(event models.Event) EventDTO {
	dto := EventDTO{
		ID:               event.ID,
		Title:            event.Title,
		Description:      event.Description,
		Date:             event.Date,
		Location:         event.Location,
		Category:         event.Category,
		Keywords:         nonNil(event.Keywords),
		Tags:             nonNil(event.Tags),
		Image:            event.Image,
		EventURL:         event.EventURL,
		MaxParticipants:  event.MaxParticipants,
		Participants:     event.ParticipantIDs(),
		Status:           event.Status,
		OrganizerContact: event.OrganizerContact,
		CreatedBy:        CreatorDTO{ID: event.CreatedBy},
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}

	// Expand creator if preloaded
	if event.Creator != nil {
		dto.CreatedBy.FirstName = event.Creator.FirstName
		dto.CreatedBy.LastName = event.Creator.LastName
		dto.CreatedBy.Username = event.Creator.Username
	}

	return dto
}

// ToEventDTOs converts a slice of events
func ToEventDTOs(events []models.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, event := range events {
		dtos[i] = ToEventDTO(event)
	}
	return dtos
}

// ToEventSummaryDTO converts an Event model to EventSummaryDTO
func ToEventSummaryDTO(event models.Event) EventSummaryDTO {
	return EventSummaryDTO{
		ID:       event.ID,
		Title:    event.Title,
		Date:     event.Date,
		Location: event.Location,
	}
}

// ToEventSummaryDTOs converts a slice of events
func ToEventSummaryDTOs(events []models.Event) []EventSummaryDTO {
	dtos := make([]EventSummaryDTO, len(events))
	for i, event := range events {
		dtos[i] = ToEventSummaryDTO(event)
	}
	return dtos
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
