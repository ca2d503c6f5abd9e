package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/event-platform-api/internal/database"
	"github.com/yukikurage/event-platform-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository stores users in the users collection.
type MongoUserRepository struct {
	users  *mongo.Collection
	events *mongo.Collection
}

// NewMongoUserRepository creates a UserRepository backed by db
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		users:  db.Collection(database.UsersCollection),
		events: db.Collection(database.EventsCollection),
	}
}

// Create inserts user and assigns its ID
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID().Hex()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	doc, err := newUserDocument(user)
	if err != nil {
		return err
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByExternalID finds a user by external identity
func (r *MongoUserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

// FindByEmail finds a user by email
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByUsername finds a user by username
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	user := doc.toModel()
	return &user, nil
}

// List lists users ordered by creation time
func (r *MongoUserRepository) List(ctx context.Context, role *models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != nil {
		filter["role"] = string(*role)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

// Update replaces the stored user document
func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	doc, err := newUserDocument(user)
	if err != nil {
		return err
	}

	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete pulls the user from every event roster, then removes the user
func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	if _, err := r.events.UpdateMany(ctx,
		bson.M{"participants": oid},
		bson.M{"$pull": bson.M{"participants": oid}},
	); err != nil {
		return fmt.Errorf("failed to remove user from events: %w", err)
	}

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every user
func (r *MongoUserRepository) DeleteAll(ctx context.Context) error {
	_, err := r.users.DeleteMany(ctx, bson.M{})
	return err
}

// translateMongoError maps driver errors onto the repository errors.
func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}
