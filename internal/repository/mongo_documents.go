package repository

import (
	"time"

	"github.com/yukikurage/event-platform-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	ExternalID   *string            `bson:"externalId,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Phone        string             `bson:"phone,omitempty"`
	Bio          string             `bson:"bio,omitempty"`
	Location     string             `bson:"location,omitempty"`
	SocialLinks  map[string]string  `bson:"socialLinks,omitempty"`
	DateOfBirth  *time.Time         `bson:"dateOfBirth,omitempty"`
	ProfileImage string             `bson:"profileImage,omitempty"`
	Role         string             `bson:"role"`
	IsVerified   bool               `bson:"isVerified"`
	IsActive     bool               `bson:"isActive"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type organizerContactDocument struct {
	Email string `bson:"email"`
	Phone string `bson:"phone"`
}

type eventDocument struct {
	ID               primitive.ObjectID       `bson:"_id"`
	Title            string                   `bson:"title"`
	Description      string                   `bson:"description"`
	Date             time.Time                `bson:"date"`
	Location         string                   `bson:"location"`
	Category         string                   `bson:"category"`
	Keywords         []string                 `bson:"keywords"`
	Tags             []string                 `bson:"tags"`
	Image            string                   `bson:"image"`
	EventURL         string                   `bson:"eventURL"`
	MaxParticipants  int                      `bson:"maxParticipants"`
	Participants     []primitive.ObjectID     `bson:"participants"`
	Status           string                   `bson:"status"`
	OrganizerContact organizerContactDocument `bson:"organizerContact"`
	CreatedBy        primitive.ObjectID       `bson:"createdBy"`
	CreatedAt        time.Time                `bson:"createdAt"`
	UpdatedAt        time.Time                `bson:"updatedAt"`
}

func newUserDocument(u *models.User) (userDocument, error) {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return userDocument{}, ErrNotFound
	}
	return userDocument{
		ID:           id,
		ExternalID:   u.ExternalID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Bio:          u.Bio,
		Location:     u.Location,
		SocialLinks:  u.SocialLinks,
		DateOfBirth:  u.DateOfBirth,
		ProfileImage: u.ProfileImage,
		Role:         string(u.Role),
		IsVerified:   u.IsVerified,
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		ExternalID:   d.ExternalID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Phone:        d.Phone,
		Bio:          d.Bio,
		Location:     d.Location,
		SocialLinks:  d.SocialLinks,
		DateOfBirth:  d.DateOfBirth,
		ProfileImage: d.ProfileImage,
		Role:         models.Role(d.Role),
		IsVerified:   d.IsVerified,
		IsActive:     d.IsActive,
		LastLogin:    d.LastLogin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newEventDocument(e *models.Event) (eventDocument, error) {
	id, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return eventDocument{}, ErrNotFound
	}
	createdBy, err := primitive.ObjectIDFromHex(e.CreatedBy)
	if err != nil {
		return eventDocument{}, ErrNotFound
	}

	participants := make([]primitive.ObjectID, 0, len(e.Participants))
	for _, p := range e.Participants {
		if oid, err := primitive.ObjectIDFromHex(p.UserID); err == nil {
			participants = append(participants, oid)
		}
	}

	return eventDocument{
		ID:              id,
		Title:           e.Title,
		Description:     e.Description,
		Date:            e.Date,
		Location:        e.Location,
		Category:        string(e.Category),
		Keywords:        nonNilStrings(e.Keywords),
		Tags:            nonNilStrings(e.Tags),
		Image:           e.Image,
		EventURL:        e.EventURL,
		MaxParticipants: e.MaxParticipants,
		Participants:    participants,
		Status:          string(e.Status),
		OrganizerContact: organizerContactDocument{
			Email: e.OrganizerContact.Email,
			Phone: e.OrganizerContact.Phone,
		},
		CreatedBy: createdBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func (d eventDocument) toModel() models.Event {
	eventID := d.ID.Hex()
	participants := make([]models.EventParticipant, 0, len(d.Participants))
	for _, p := range d.Participants {
		participants = append(participants, models.EventParticipant{EventID: eventID, UserID: p.Hex()})
	}

	return models.Event{
		ID:              eventID,
		Title:           d.Title,
		Description:     d.Description,
		Date:            d.Date,
		Location:        d.Location,
		Category:        models.Category(d.Category),
		Keywords:        d.Keywords,
		Tags:            d.Tags,
		Image:           d.Image,
		EventURL:        d.EventURL,
		MaxParticipants: d.MaxParticipants,
		Status:          models.EventStatus(d.Status),
		OrganizerContact: models.OrganizerContact{
			Email: d.OrganizerContact.Email,
			Phone: d.OrganizerContact.Phone,
		},
		CreatedBy:    d.CreatedBy.Hex(),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Participants: participants,
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
