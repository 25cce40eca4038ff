// internal/app/store/notification/notificationstore.go

// Package notification provides storage for in-app notifications.
package notification

import (
	"context"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// CreateInput contains the input for creating a notification.
type CreateInput struct {
	UserID  primitive.ObjectID
	Type    string
	Title   string
	Message string

	RepoID        *primitive.ObjectID
	ApplicationID *primitive.ObjectID
	ActorID       *primitive.ObjectID
}

// Create inserts a notification for a user.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	n := models.Notification{
		ID:            primitive.NewObjectID(),
		UserID:        input.UserID,
		Type:          input.Type,
		Title:         input.Title,
		Message:       input.Message,
		RepoID:        input.RepoID,
		ApplicationID: input.ApplicationID,
		ActorID:       input.ActorID,
		Read:          false,
		CreatedAt:     time.Now().UTC(),
	}

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns a user's notifications, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	if limit <= 0 {
		limit = 50
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifs []models.Notification
	if err := cur.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

// CountUnread returns the number of unread notifications for a user.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks a single notification read. The user filter keeps one
// user from touching another's inbox.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkAllRead marks all of a user's notifications read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a single notification owned by the user.
func (s *Store) Delete(ctx context.Context, id, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
