// Package seeds loads the demo users and events shipped with the binary.
package seeds

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:embed data/users.json data/events.json
var fixtures embed.FS

type userFixture struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=user admin"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
}

type eventFixture struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description" validate:"required"`
	Date             time.Time `json:"date" validate:"required"`
	Location         string    `json:"location" validate:"required"`
	MaxParticipants  int       `json:"maxParticipants" validate:"min=1"`
	Category         string    `json:"category" validate:"required"`
	Keywords         []string  `json:"keywords"`
	Tags             []string  `json:"tags"`
	Image            string    `json:"image"`
	EventURL         string    `json:"eventURL"`
	OrganizerContact struct {
		Email string `json:"email" validate:"required,email"`
		Phone string `json:"phone" validate:"required"`
	} `json:"organizerContact"`
	CreatedBy    string   `json:"createdBy" validate:"required"`
	Participants []string `json:"participants"`
}

// Result counts what a run inserted.
type Result struct {
	Users        int
	Events       int
	Participants int
}

// Seeder replaces the contents of a store with the embedded fixtures.
type Seeder struct {
	store    repository.Store
	log      *zap.Logger
	validate *validator.Validate
	cost     int
}

// New creates a Seeder writing through store.
func New(store repository.Store, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		store:    store,
		log:      log,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the password hashing cost.
func (s *Seeder) WithBcryptCost(cost int) *Seeder {
	s.cost = cost
	return s
}

// Run deletes every event and user, then inserts the fixtures. Events name
// their creator and participants by username.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var result Result

	var users []userFixture
	if err := s.load("data/users.json", &users); err != nil {
		return result, err
	}
	if err := validateFixtures(s.validate, "users.json", users); err != nil {
		return result, err
	}
	var events []eventFixture
	if err := s.load("data/events.json", &events); err != nil {
		return result, err
	}
	if err := validateFixtures(s.validate, "events.json", events); err != nil {
		return result, err
	}

	if err := s.store.Events.DeleteAll(ctx); err != nil {
		return result, fmt.Errorf("failed to clear events: %w", err)
	}
	if err := s.store.Users.DeleteAll(ctx); err != nil {
		return result, fmt.Errorf("failed to clear users: %w", err)
	}

	byUsername := make(map[string]*models.User, len(users))
	for _, f := range users {
		user, err := s.createUser(ctx, f)
		if err != nil {
			return result, err
		}
		byUsername[user.Username] = user
		result.Users++
	}

	for _, f := range events {
		creator, ok := byUsername[f.CreatedBy]
		if !ok || !creator.IsAdmin() {
			return result, fmt.Errorf("event %q: creator %q is not a seeded admin", f.Title, f.CreatedBy)
		}

		event := &models.Event{
			Title:           f.Title,
			Description:     f.Description,
			Date:            f.Date.UTC(),
			Location:        f.Location,
			MaxParticipants: f.MaxParticipants,
			Category:        models.Category(f.Category),
			Keywords:        f.Keywords,
			Tags:            f.Tags,
			Image:           f.Image,
			EventURL:        f.EventURL,
			Status:          models.EventStatusActive,
			OrganizerContact: models.OrganizerContact{
				Email: f.OrganizerContact.Email,
				Phone: f.OrganizerContact.Phone,
			},
			CreatedBy: creator.ID,
		}
		if !event.Category.IsValid() {
			return result, fmt.Errorf("event %q: unknown category %q", f.Title, f.Category)
		}
		if err := s.store.Events.Create(ctx, event); err != nil {
			return result, fmt.Errorf("failed to create event %q: %w", f.Title, err)
		}
		result.Events++

		for _, username := range f.Participants {
			participant, ok := byUsername[username]
			if !ok {
				return result, fmt.Errorf("event %q: unknown participant %q", f.Title, username)
			}
			if err := s.store.Events.AddParticipant(ctx, event.ID, participant.ID); err != nil {
				return result, fmt.Errorf("failed to add %q to %q: %w", username, f.Title, err)
			}
			result.Participants++
		}
	}

	s.log.Info("database seeded",
		zap.Int("users", result.Users),
		zap.Int("events", result.Events),
		zap.Int("participants", result.Participants),
	)
	return result, nil
}

func (s *Seeder) createUser(ctx context.Context, f userFixture) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %q: %w", f.Username, err)
	}

	externalID := constants.SeedIdentityPrefix + f.Username
	user := &models.User{
		ExternalID:   &externalID,
		Username:     f.Username,
		Email:        utils.NormalizeEmail(f.Email),
		PasswordHash: string(hash),
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Phone:        f.Phone,
		Bio:          f.Bio,
		Location:     f.Location,
		Role:         models.Role(f.Role),
		IsVerified:   true,
		IsActive:     true,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", f.Username, err)
	}
	return user, nil
}

// load decodes one fixture file.
func (s *Seeder) load(name string, out interface{}) error {
	raw, err := fixtures.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func validateFixtures[T any](v *validator.Validate, name string, items []T) error {
	for i := range items {
		if err := v.Struct(items[i]); err != nil {
			return fmt.Errorf("invalid fixture %d in %s: %w", i, name, err)
		}
	}
	return nil
}
