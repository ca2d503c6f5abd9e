package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/authz"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts, profiles and caller resolution.
type UserService struct {
	users  repository.UserRepository
	events repository.EventRepository
	tokens auth.TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, events repository.EventRepository, tokens auth.TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		events: events,
		tokens: tokens,
	}
}

// ResolveCaller returns the local user linked to externalID.
func (s *UserService) ResolveCaller(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve caller: %w", err)
	}
	return user, nil
}

// ListUsers returns every user, optionally only those with role.
func (s *UserService) ListUsers(ctx context.Context, caller *models.User, role string) ([]models.User, error) {
	if d := authz.Can(caller, authz.ActionListUsers, nil); !d.Allowed {
		return nil, &DeniedError{Reason: d.Reason}
	}

	var filter *models.Role
	if role = strings.TrimSpace(role); role != "" {
		r := models.Role(role)
		filter = &r
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Profile is a user with the derived views of their events.
type Profile struct {
	User           models.User
	EventsSignedUp []models.Event
	EventsManaged  []models.Event
}

// GetOwnProfile returns caller's profile. EventsManaged is only set for admins.
func (s *UserService) GetOwnProfile(ctx context.Context, caller *models.User) (*Profile, error) {
	if caller == nil {
		return nil, ErrUserNotFound
	}

	signedUp, err := s.events.ListByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signed up events: %w", err)
	}

	profile := &Profile{
		User:           *caller,
		EventsSignedUp: signedUp,
	}

	if caller.IsAdmin() {
		managed, err := s.events.ListByCreator(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load managed events: %w", err)
		}
		profile.EventsManaged = managed
	}

	return profile, nil
}

// UpdateProfileInput is a partial self-service profile update. Role and
// credentials cannot be changed through it.
type UpdateProfileInput struct {
	FirstName    *string
	LastName     *string
	Username     *string
	Email        *string
	Phone        *string
	Bio          *string
	Location     *string
	SocialLinks  map[string]string
	DateOfBirth  *time.Time
	ProfileImage *string
}

// UpdateOwnProfile applies input to caller's record.
func (s *UserService) UpdateOwnProfile(ctx context.Context, caller *models.User, input UpdateProfileInput) (*models.User, error) {
	if caller == nil {
		return nil, ErrUserNotFound
	}
	user := *caller

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrInvalidProfile
		}
		if username != user.Username {
			if err := s.ensureUnique(ctx, s.users.FindByUsername, username, user.ID, ErrUsernameTaken); err != nil {
				return nil, err
			}
		}
		user.Username = username
	}

	if input.Email != nil {
		email := utils.NormalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrInvalidProfile
		}
		if email != user.Email {
			if err := s.ensureUnique(ctx, s.users.FindByEmail, email, user.ID, ErrEmailInUse); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Location != nil {
		user.Location = strings.TrimSpace(*input.Location)
	}
	if input.SocialLinks != nil {
		user.SocialLinks = input.SocialLinks
	}
	if input.DateOfBirth != nil {
		dob := input.DateOfBirth.UTC()
		user.DateOfBirth = &dob
	}
	if input.ProfileImage != nil {
		user.ProfileImage = *input.ProfileImage
	}

	if err := s.users.Update(ctx, &user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, s.duplicateCause(ctx, &user, ErrEmailInUse, fmt.Errorf("failed to update profile: %w", err))
		default:
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return &user, nil
}

// duplicateCause looks up which unique field of user is held by someone else
// after a write lost a race to a unique index. It returns fallback when
// neither the email nor the username is taken.
func (s *UserService) duplicateCause(ctx context.Context, user *models.User, emailTaken, fallback error) error {
	if other, err := s.users.FindByEmail(ctx, user.Email); err == nil && other.ID != user.ID {
		return emailTaken
	}
	if other, err := s.users.FindByUsername(ctx, user.Username); err == nil && other.ID != user.ID {
		return ErrUsernameTaken
	}
	return fallback
}

// ensureUnique fails with taken when value belongs to a user other than selfID.
func (s *UserService) ensureUnique(ctx context.Context, find func(context.Context, string) (*models.User, error), value, selfID string, taken error) error {
	existing, err := find(ctx, value)
	switch {
	case err == nil && existing.ID != selfID:
		return taken
	case err == nil, errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check uniqueness: %w", err)
	}
}

// DeleteOwnProfile removes caller and their signups.
func (s *UserService) DeleteOwnProfile(ctx context.Context, caller *models.User) error {
	if caller == nil {
		return ErrUserNotFound
	}
	if err := s.users.Delete(ctx, caller.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// RegisterInput represents the information required to create a local account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Register creates a local user and returns it with a signed token.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	username := strings.TrimSpace(input.Username)
	email := utils.NormalizeEmail(input.Email)
	if firstName == "" || lastName == "" || username == "" || email == "" || input.Password == "" {
		return nil, "", ErrMissingFields
	}

	if !utils.MeetsPasswordPolicy(input.Password) {
		return nil, "", ErrWeakPassword
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	externalID := constants.LocalIdentityPrefix + uuid.NewString()
	user := &models.User{
		ExternalID:   &externalID,
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, "", s.duplicateCause(ctx, user, ErrEmailExists, fmt.Errorf("failed to create user: %w", err))
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(externalID, user.Email)
	if err != nil {
		return nil, "", ErrFailedToIssueToken
	}

	return user, token, nil
}

// Login verifies the credentials and returns the user with a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if user.ExternalID == nil {
		externalID := constants.LocalIdentityPrefix + uuid.NewString()
		user.ExternalID = &externalID
	}
	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to record login: %w", err)
	}

	token, err := s.tokens.Issue(user.ExternalIdentity(), user.Email)
	if err != nil {
		return nil, "", ErrFailedToIssueToken
	}

	return user, token, nil
}

// SyncInput carries identity-provider profile hints.
type SyncInput struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// SyncExternalIdentity ensures a local user exists for the external identity.
// Repeated calls with the same input return the same user.
func (s *UserService) SyncExternalIdentity(ctx context.Context, input SyncInput) (*models.User, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	email := utils.NormalizeEmail(input.Email)
	if externalID == "" || email == "" {
		return nil, ErrMissingIdentity
	}

	user, err := s.users.FindByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user by external id: %w", err)
	}

	user, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.ExternalID == nil {
			user.ExternalID = &externalID
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to link external id: %w", err)
			}
		}
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	username, err := s.availableUsername(ctx, utils.UsernameBase(email, externalID))
	if err != nil {
		return nil, err
	}

	user = &models.User{
		ExternalID: &externalID,
		Username:   username,
		Email:      email,
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Role:       models.RoleUser,
		IsVerified: true,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// a concurrent sync for the same identity won the insert
			if existing, findErr := s.users.FindByExternalID(ctx, externalID); findErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *UserService) availableUsername(ctx context.Context, base string) (string, error) {
	for n := 0; n < constants.MaxUsernameAttempts; n++ {
		candidate := utils.UsernameCandidate(base, n)
		_, err := s.users.FindByUsername(ctx, candidate)
		if errors.Is(err, repository.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
	}
	return "", ErrUsernameGenerationLimit
}
