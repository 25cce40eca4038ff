// internal/app/store/passwordreset/passwordresetstore.go

// Package passwordreset provides storage for single-use password reset
// tokens.
package passwordreset

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotUsable is returned when consuming a token that is expired or
// already used.
var ErrNotUsable = errors.New("password reset token is expired or already used")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("password_resets")}
}

// Create issues a fresh reset token for a user, invalidating any earlier
// outstanding tokens so only the newest email works.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (*models.PasswordReset, error) {
	now := time.Now().UTC()

	if _, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": now}},
	); err != nil {
		return nil, err
	}

	pr := models.PasswordReset{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Consume validates and burns a token in one conditional update, returning
// the owning record. A token can be consumed exactly once.
func (s *Store) Consume(ctx context.Context, token string) (*models.PasswordReset, error) {
	now := time.Now().UTC()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"token":      token,
			"used_at":    nil,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"used_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var pr models.PasswordReset
	if err := res.Decode(&pr); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish a bad token from a spent or expired one.
			if cerr := s.c.FindOne(ctx, bson.M{"token": token}).Err(); cerr == mongo.ErrNoDocuments {
				return nil, mongo.ErrNoDocuments
			}
			return nil, ErrNotUsable
		}
		return nil, err
	}
	return &pr, nil
}
