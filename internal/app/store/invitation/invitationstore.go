// internal/app/store/invitation/invitationstore.go

// Package invitation provides storage for emailed repository invitations.
package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrPendingExists is returned when the address already holds a pending
	// invitation to the repository.
	ErrPendingExists = errors.New("a pending invitation for this email already exists")

	// ErrNotPending is returned when accepting an invitation that has
	// already been accepted or has expired.
	ErrNotPending = errors.New("invitation is no longer pending")

	// ErrExpired is returned when accepting an invitation past its expiry.
	ErrExpired = errors.New("invitation has expired")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// CreateInput contains the input for issuing an invitation.
type CreateInput struct {
	RepoID      primitive.ObjectID
	Email       string
	Role        string
	InvitedByID primitive.ObjectID
}

// Create issues a new pending invitation with a fresh single-use token.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Invitation, error) {
	email := normalize.Email(input.Email)

	count, err := s.c.CountDocuments(ctx, bson.M{
		"repo_id": input.RepoID,
		"email":   email,
		"status":  models.InvitationPending,
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPendingExists
	}

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:          primitive.NewObjectID(),
		RepoID:      input.RepoID,
		Email:       email,
		Role:        normalize.Role(input.Role),
		Token:       uuid.NewString(),
		InvitedByID: input.InvitedByID,
		Status:      models.InvitationPending,
		ExpiresAt:   now.Add(models.InvitationTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			// Token collision is practically impossible; retry once.
			inv.Token = uuid.NewString()
			if _, err := s.c.InsertOne(ctx, inv); err != nil {
				return nil, err
			}
			return &inv, nil
		}
		return nil, err
	}
	return &inv, nil
}

// GetByToken looks up an invitation by its token.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByID retrieves an invitation by ID. Returns mongo.ErrNoDocuments if
// not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Accept marks a pending, unexpired invitation accepted. The status check
// is part of the update so the token cannot be redeemed twice.
func (s *Store) Accept(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrNotPending
	}
	now := time.Now().UTC()
	if now.After(inv.ExpiresAt) {
		return nil, ErrExpired
	}

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"token": token, "status": models.InvitationPending},
		bson.M{"$set": bson.M{
			"status":     models.InvitationAccepted,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var accepted models.Invitation
	if err := res.Decode(&accepted); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotPending
		}
		return nil, err
	}
	return &accepted, nil
}

// ListByRepo returns a repository's invitations, newest first.
func (s *Store) ListByRepo(ctx context.Context, repoID primitive.ObjectID) ([]models.Invitation, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"repo_id": repoID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// Delete revokes an invitation.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByRepo removes all invitations for a repository. Used by the
// repository cascade delete.
func (s *Store) DeleteByRepo(ctx context.Context, repoID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"repo_id": repoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
