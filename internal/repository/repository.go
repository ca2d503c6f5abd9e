package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/event-platform-api/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist or the id is malformed.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("repository: duplicate key")
	// ErrAlreadyParticipant is returned when the user is already signed up for the event.
	ErrAlreadyParticipant = errors.New("repository: user already signed up")
	// ErrNotParticipant is returned when the user is not signed up for the event.
	ErrNotParticipant = errors.New("repository: user not signed up")
	// ErrEventFull is returned when the event has reached maxParticipants.
	ErrEventFull = errors.New("repository: event is full")
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *models.Event) error

	// FindByID finds an event with its creator and participants loaded
	FindByID(ctx context.Context, id string) (*models.Event, error)

	// List retrieves events with filtering, sorting and pagination
	List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)

	// ListByCreator lists events created by the given user
	ListByCreator(ctx context.Context, userID string) ([]models.Event, error)

	// ListByParticipant lists events the given user is signed up for
	ListByParticipant(ctx context.Context, userID string) ([]models.Event, error)

	// Update persists the mutable fields of an event
	Update(ctx context.Context, event *models.Event) error

	// Delete deletes an event and its participation records
	Delete(ctx context.Context, id string) error

	// AddParticipant signs a user up for an event, enforcing uniqueness and capacity
	AddParticipant(ctx context.Context, eventID, userID string) error

	// RemoveParticipant removes a user's signup from an event
	RemoveParticipant(ctx context.Context, eventID, userID string) error

	// DeleteAll removes every event and participation record
	DeleteAll(ctx context.Context) error
}

// EventFilter holds filtering options for listing events
type EventFilter struct {
	Category *models.Category
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByExternalID finds a user by the identity provider's subject
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// List lists users, optionally filtered by role
	List(ctx context.Context, role *models.Role) ([]models.User, error)

	// Update persists a user
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user and their participation records
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every user
	DeleteAll(ctx context.Context) error
}

// Store groups the repositories backed by one data store.
type Store struct {
	Users  UserRepository
	Events EventRepository
}

// eventSortFields maps accepted sortBy values to storage field names.
var eventSortFields = map[string]struct{ column, document string }{
	"date":            {"date", "date"},
	"title":           {"title", "title"},
	"location":        {"location", "location"},
	"category":        {"category", "category"},
	"status":          {"status", "status"},
	"maxParticipants": {"max_participants", "maxParticipants"},
	"createdAt":       {"created_at", "createdAt"},
}

// DefaultEventSort is used when sortBy is missing or not recognised.
const DefaultEventSort = "date"

// IsSortableEventField reports whether sortBy names a sortable event field.
func IsSortableEventField(sortBy string) bool {
	_, ok := eventSortFields[sortBy]
	return ok
}

// NewGormStore returns the repositories backed by a relational database.
func NewGormStore(db *gorm.DB) Store {
	return Store{
		Users:  NewUserRepository(db),
		Events: NewEventRepository(db),
	}
}

// NewMongoStore returns the repositories backed by a MongoDB database.
func NewMongoStore(db *mongo.Database) Store {
	return Store{
		Users:  NewMongoUserRepository(db),
		Events: NewMongoEventRepository(db),
	}
}
