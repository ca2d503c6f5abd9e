// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/event-platform-api/internal/database"
	"github.com/yukikurage/event-platform-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that is closed when t ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	// every pooled connection would get its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with the given username and role.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	externalID := "local_" + username
	user := &models.User{
		ExternalID: &externalID,
		Username:   username,
		Email:      username + "@example.com",
		FirstName:  "First",
		LastName:   "Last",
		Role:       role,
		IsActive:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateEvent inserts an event created by creatorID.
func CreateEvent(t testing.TB, db *gorm.DB, title string, creatorID string, category models.Category, date time.Time, maxParticipants int) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:           title,
		Description:     title + " description",
		Date:            date,
		Location:        "Leeds",
		Category:        category,
		Keywords:        []string{},
		Tags:            []string{},
		MaxParticipants: maxParticipants,
		OrganizerContact: models.OrganizerContact{
			Email: "organizer@example.com",
			Phone: "07123456789",
		},
		CreatedBy: creatorID,
	}
	require.NoError(t, db.Omit("Creator", "Participants").Create(event).Error)
	return event
}

// SignUp records userID as a participant of eventID.
func SignUp(t testing.TB, db *gorm.DB, eventID, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.EventParticipant{
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}).Error)
}
