package services

import (
	"errors"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEventData   = errors.New("invalid event data")
	ErrInvalidEventUpdate = errors.New("invalid event update")
	ErrAlreadySignedUp    = errors.New("already signed up for event")
	ErrNotSignedUp        = errors.New("not signed up for event")
	ErrEventFull          = errors.New("event is full")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailInUse         = errors.New("email already in use")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrMissingFields      = errors.New("required fields missing")
	ErrInvalidProfile     = errors.New("invalid profile data")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingIdentity    = errors.New("external id and email are required")

	ErrForbidden               = errors.New("forbidden")
	ErrKeywordsUnavailable     = errors.New("keyword suggestion is not configured")
	ErrFailedToHashPassword    = errors.New("failed to hash password")
	ErrFailedToIssueToken      = errors.New("failed to issue token")
	ErrUsernameGenerationLimit = errors.New("could not generate a unique username")
)

// DeniedError is returned when the authorization policy refuses an action.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrForbidden.
func (e *DeniedError) Unwrap() error {
	return ErrForbidden
}
