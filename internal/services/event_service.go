package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/event-platform-api/internal/authz"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/utils"
)

// EventService handles event listing, management and participation.
type EventService struct {
	events repository.EventRepository
}

// NewEventService creates a new EventService.
func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events}
}

// ListEventsInput carries the raw listing query. Out-of-range values fall back to defaults.
type ListEventsInput struct {
	Page      int
	Limit     int
	Category  string
	SortBy    string
	SortOrder string
}

// EventPage is one page of events with aggregate counts.
type EventPage struct {
	Events      []models.Event
	TotalEvents int64
	TotalPages  int
	CurrentPage int
}

// ListEvents returns a page of events. An empty page is not an error.
func (s *EventService) ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	params := utils.NewPaginationParams(input.Page, input.Limit)

	filter := repository.EventFilter{
		SortBy:   input.SortBy,
		SortDesc: strings.EqualFold(input.SortOrder, "desc"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if !repository.IsSortableEventField(filter.SortBy) {
		filter.SortBy = repository.DefaultEventSort
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		c := models.Category(category)
		filter.Category = &c
	}

	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return &EventPage{
		Events:      events,
		TotalEvents: total,
		TotalPages:  utils.TotalPages(total, params.Limit),
		CurrentPage: params.Page,
	}, nil
}

// GetEvent returns an event with its creator expanded.
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// CreateEventInput represents the information required to create an event.
type CreateEventInput struct {
	Title           string
	Description     string
	Date            *time.Time
	Location        string
	MaxParticipants int
	Category        string
	Keywords        []string
	Tags            []string
	Image           string
	EventURL        string
	Status          string
	OrganizerEmail  string
	OrganizerPhone  string
}

// CreateEvent creates an event owned by creator.
func (s *EventService) CreateEvent(ctx context.Context, creator *models.User, input CreateEventInput) (*models.Event, error) {
	if d := authz.Can(creator, authz.ActionCreateEvent, nil); !d.Allowed {
		return nil, &DeniedError{Reason: d.Reason}
	}

	event := &models.Event{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Location:        strings.TrimSpace(input.Location),
		MaxParticipants: input.MaxParticipants,
		Category:        models.Category(input.Category),
		Keywords:        nonNilStrings(input.Keywords),
		Tags:            nonNilStrings(input.Tags),
		Image:           input.Image,
		EventURL:        input.EventURL,
		Status:          models.EventStatus(input.Status),
		OrganizerContact: models.OrganizerContact{
			Email: strings.TrimSpace(input.OrganizerEmail),
			Phone: strings.TrimSpace(input.OrganizerPhone),
		},
		CreatedBy: creator.ID,
	}
	if input.Date != nil {
		event.Date = input.Date.UTC()
	}
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}

	if input.Date == nil || !validEvent(event) {
		return nil, ErrInvalidEventData
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventData, err)
	}

	event.Creator = creator
	return event, nil
}

// UpdateEventInput holds a partial update. Nil fields are left unchanged.
type UpdateEventInput struct {
	Title           *string
	Description     *string
	Date            *time.Time
	Location        *string
	MaxParticipants *int
	Category        *string
	Keywords        *[]string
	Tags            *[]string
	Image           *string
	EventURL        *string
	Status          *string
	OrganizerEmail  *string
	OrganizerPhone  *string
}

// UpdateEvent applies input to event. The caller must already have passed the
// creator-admin check; createdBy and participants cannot change here.
func (s *EventService) UpdateEvent(ctx context.Context, event *models.Event, input UpdateEventInput) (*models.Event, error) {
	updated := *event
	applyEventUpdate(&updated, input)

	if !validEvent(&updated) {
		return nil, ErrInvalidEventUpdate
	}

	if err := s.events.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventUpdate, err)
	}

	return s.GetEvent(ctx, event.ID)
}

func applyEventUpdate(event *models.Event, input UpdateEventInput) {
	if input.Title != nil {
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil {
		event.Date = input.Date.UTC()
	}
	if input.Location != nil {
		event.Location = strings.TrimSpace(*input.Location)
	}
	if input.MaxParticipants != nil {
		event.MaxParticipants = *input.MaxParticipants
	}
	if input.Category != nil {
		event.Category = models.Category(*input.Category)
	}
	if input.Keywords != nil {
		event.Keywords = nonNilStrings(*input.Keywords)
	}
	if input.Tags != nil {
		event.Tags = nonNilStrings(*input.Tags)
	}
	if input.Image != nil {
		event.Image = *input.Image
	}
	if input.EventURL != nil {
		event.EventURL = *input.EventURL
	}
	if input.Status != nil {
		event.Status = models.EventStatus(*input.Status)
	}
	if input.OrganizerEmail != nil {
		event.OrganizerContact.Email = strings.TrimSpace(*input.OrganizerEmail)
	}
	if input.OrganizerPhone != nil {
		event.OrganizerContact.Phone = strings.TrimSpace(*input.OrganizerPhone)
	}
}

func validEvent(event *models.Event) bool {
	return event.Title != "" &&
		event.Description != "" &&
		!event.Date.IsZero() &&
		event.Location != "" &&
		event.MaxParticipants >= 1 &&
		event.Category.IsValid() &&
		event.Status.IsValid() &&
		event.OrganizerContact.Email != "" &&
		event.OrganizerContact.Phone != ""
}

// DeleteEvent removes an event and its participation records.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// SignUp adds caller to the event's participants.
func (s *EventService) SignUp(ctx context.Context, eventID string, caller *models.User) (*models.Event, error) {
	event, err := s.participationTarget(ctx, eventID, caller, authz.ActionSignUp)
	if err != nil {
		return nil, err
	}

	if err := s.events.AddParticipant(ctx, event.ID, caller.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyParticipant):
			return nil, ErrAlreadySignedUp
		case errors.Is(err, repository.ErrEventFull):
			return nil, ErrEventFull
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEventNotFound
		default:
			return nil, fmt.Errorf("failed to sign up: %w", err)
		}
	}

	return event, nil
}

// UnSignUp removes caller from the event's participants.
func (s *EventService) UnSignUp(ctx context.Context, eventID string, caller *models.User) (*models.Event, error) {
	event, err := s.participationTarget(ctx, eventID, caller, authz.ActionUnSignUp)
	if err != nil {
		return nil, err
	}

	if err := s.events.RemoveParticipant(ctx, event.ID, caller.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotParticipant):
			return nil, ErrNotSignedUp
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEventNotFound
		default:
			return nil, fmt.Errorf("failed to remove signup: %w", err)
		}
	}

	return event, nil
}

func (s *EventService) participationTarget(ctx context.Context, eventID string, caller *models.User, action authz.Action) (*models.Event, error) {
	if caller == nil {
		return nil, ErrUserNotFound
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if d := authz.Can(caller, action, event); !d.Allowed {
		return nil, &DeniedError{Reason: d.Reason}
	}
	return event, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
