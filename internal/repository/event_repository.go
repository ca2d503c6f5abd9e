package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/event-platform-api/internal/database"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// Create creates a new event
func (r *GormEventRepository) Create(ctx context.Context, event *models.Event) error {
	return translateGormError(r.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error)
}

// FindByID finds an event by ID with creator and participants preloaded
func (r *GormEventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}

	var event models.Event
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Participants").
		First(&event, "id = ?", id).Error; err != nil {
		return nil, translateGormError(err)
	}

	return &event, nil
}

// List retrieves events with filtering and pagination
func (r *GormEventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	events := []models.Event{}

	query := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Scopes(database.InCategory(filter.Category)).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateGormError(err)
	}

	sort, ok := eventSortFields[filter.SortBy]
	if !ok {
		sort = eventSortFields[DefaultEventSort]
	}

	params := utils.NewPaginationParams(filter.Page, filter.PageSize)
	err := query.
		Scopes(database.OrderedBy(sort.column, filter.SortDesc), database.Paginate(params)).
		Preload("Creator").
		Preload("Participants").
		Find(&events).Error
	if err != nil {
		return nil, 0, translateGormError(err)
	}

	return events, total, nil
}

// ListByCreator lists the events created by userID, soonest first
func (r *GormEventRepository) ListByCreator(ctx context.Context, userID string) ([]models.Event, error) {
	events := []models.Event{}
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("date ASC").
		Preload("Participants").
		Find(&events).Error; err != nil {
		return nil, translateGormError(err)
	}
	return events, nil
}

// ListByParticipant lists the events userID signed up for, soonest first
func (r *GormEventRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Event, error) {
	events := []models.Event{}
	db := r.db.WithContext(ctx)

	participation := db.Model(&models.EventParticipant{}).
		Select("event_id").
		Where("user_id = ?", userID)

	if err := db.
		Where("id IN (?)", participation).
		Order("date ASC").
		Find(&events).Error; err != nil {
		return nil, translateGormError(err)
	}
	return events, nil
}

// Update persists the mutable columns of an event; createdBy is never rewritten
func (r *GormEventRepository) Update(ctx context.Context, event *models.Event) error {
	res := r.db.WithContext(ctx).Model(&models.Event{ID: event.ID}).
		Select("*").
		Omit("id", "created_by", "created_at", clause.Associations).
		Updates(event)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes an event and its participation records
func (r *GormEventRepository) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return ErrNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddParticipant signs userID up for eventID inside a transaction holding the event row
func (r *GormEventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	if !validUUID(eventID) {
		return ErrNotFound
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// sqlite serializes writers and has no row locks
		locked := tx
		if tx.Dialector.Name() != "sqlite" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var event models.Event
		if err := locked.First(&event, "id = ?", eventID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyParticipant
		}

		var count int64
		if err := tx.Model(&models.EventParticipant{}).
			Where("event_id = ?", eventID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(event.MaxParticipants) {
			return ErrEventFull
		}

		return tx.Create(&models.EventParticipant{
			EventID:  eventID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}).Error
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyParticipant
	}
	return translateGormError(err)
}

// RemoveParticipant removes userID from eventID
func (r *GormEventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventParticipant{})
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	return nil
}

// DeleteAll removes every event and participation record
func (r *GormEventRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		return global.Delete(&models.Event{}).Error
	})
}
