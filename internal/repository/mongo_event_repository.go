package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yukikurage/event-platform-api/internal/database"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventRepository stores events in the events collection. Signups live
// in the participants array of each event document.
type MongoEventRepository struct {
	events *mongo.Collection
	users  *mongo.Collection
}

// NewMongoEventRepository creates an EventRepository backed by db
func NewMongoEventRepository(db *mongo.Database) EventRepository {
	return &MongoEventRepository{
		events: db.Collection(database.EventsCollection),
		users:  db.Collection(database.UsersCollection),
	}
}

// Create inserts event and assigns its ID
func (r *MongoEventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	event.ID = primitive.NewObjectID().Hex()
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}
	event.CreatedAt = now
	event.UpdatedAt = now

	doc, err := newEventDocument(event)
	if err != nil {
		return err
	}
	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err)
	}
	return nil
}

// FindByID finds an event with its creator and participants loaded
func (r *MongoEventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc eventDocument
	if err := r.events.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}

	events := []models.Event{doc.toModel()}
	if err := r.attachCreators(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

// List retrieves events with filtering, sorting and pagination
func (r *MongoEventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	query := eventListQuery(filter)

	total, err := r.events.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translateMongoError(err)
	}

	params := utils.NewPaginationParams(filter.Page, filter.PageSize)
	opts := options.Find().
		SetSort(eventListSort(filter)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))

	events, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachCreators(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByCreator lists the events created by userID, soonest first
func (r *MongoEventRepository) ListByCreator(ctx context.Context, userID string) ([]models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []models.Event{}, nil
	}
	return r.find(ctx, bson.M{"createdBy": oid}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

// ListByParticipant lists the events userID signed up for, soonest first
func (r *MongoEventRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []models.Event{}, nil
	}
	return r.find(ctx, bson.M{"participants": oid}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *MongoEventRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := r.events.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toModel())
	}
	return events, nil
}

// attachCreators loads the creator of each event with a single $in query.
func (r *MongoEventRepository) attachCreators(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0, len(events))
	for _, e := range events {
		oid, err := primitive.ObjectIDFromHex(e.CreatedBy)
		if err != nil {
			continue
		}
		if _, ok := seen[oid]; !ok {
			seen[oid] = struct{}{}
			ids = append(ids, oid)
		}
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to load event creators: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return err
	}

	creators := make(map[string]*models.User, len(docs))
	for _, d := range docs {
		u := d.toModel()
		creators[u.ID] = &u
	}
	for i := range events {
		events[i].Creator = creators[events[i].CreatedBy]
	}
	return nil
}

// Update sets the mutable fields of an event; participants and createdBy are untouched
func (r *MongoEventRepository) Update(ctx context.Context, event *models.Event) error {
	oid, err := primitive.ObjectIDFromHex(event.ID)
	if err != nil {
		return ErrNotFound
	}
	event.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":           event.Title,
		"description":     event.Description,
		"date":            event.Date,
		"location":        event.Location,
		"category":        string(event.Category),
		"keywords":        nonNilStrings(event.Keywords),
		"tags":            nonNilStrings(event.Tags),
		"image":           event.Image,
		"eventURL":        event.EventURL,
		"maxParticipants": event.MaxParticipants,
		"status":          string(event.Status),
		"organizerContact": organizerContactDocument{
			Email: event.OrganizerContact.Email,
			Phone: event.OrganizerContact.Phone,
		},
		"updatedAt": event.UpdatedAt,
	}

	res, err := r.events.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes an event together with its embedded signups
func (r *MongoEventRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.events.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant adds userID to the roster with a single guarded update.
// When nothing matches, the event is re-read to report why.
func (r *MongoEventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	eid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.events.UpdateOne(ctx, signupFilter(eid, uid), bson.M{
		"$addToSet": bson.M{"participants": uid},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	var doc eventDocument
	if err := r.events.FindOne(ctx, bson.M{"_id": eid}).Decode(&doc); err != nil {
		return translateMongoError(err)
	}
	for _, p := range doc.Participants {
		if p == uid {
			return ErrAlreadyParticipant
		}
	}
	return ErrEventFull
}

// RemoveParticipant pulls userID from the roster
func (r *MongoEventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	eid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotParticipant
	}

	res, err := r.events.UpdateOne(ctx,
		bson.M{"_id": eid, "participants": uid},
		bson.M{
			"$pull": bson.M{"participants": uid},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotParticipant
	}
	return nil
}

// DeleteAll removes every event
func (r *MongoEventRepository) DeleteAll(ctx context.Context) error {
	_, err := r.events.DeleteMany(ctx, bson.M{})
	return err
}

func eventListQuery(filter EventFilter) bson.M {
	query := bson.M{}
	if filter.Category != nil {
		query["category"] = string(*filter.Category)
	}
	return query
}

func eventListSort(filter EventFilter) bson.D {
	sort, ok := eventSortFields[filter.SortBy]
	if !ok {
		sort = eventSortFields[DefaultEventSort]
	}
	order := 1
	if filter.SortDesc {
		order = -1
	}
	return bson.D{{Key: sort.document, Value: order}, {Key: "_id", Value: 1}}
}

// signupFilter matches the event only while uid is absent and a seat is free.
func signupFilter(eid, uid primitive.ObjectID) bson.M {
	return bson.M{
		"_id":          eid,
		"participants": bson.M{"$ne": uid},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$participants"}, "$maxParticipants"},
		},
	}
}
