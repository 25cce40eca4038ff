// internal/app/store/application/applicationstore.go

// Package application provides storage for repository join applications.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrPendingExists is returned when the applicant already has a pending
	// application for the same repository.
	ErrPendingExists = errors.New("a pending application for this repository already exists")

	// ErrAlreadyDecided is returned when accepting or rejecting an
	// application that is no longer pending.
	ErrAlreadyDecided = errors.New("application has already been decided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// CreateInput contains the input for filing an application.
type CreateInput struct {
	Kind        string
	RepoID      primitive.ObjectID
	ApplicantID primitive.ObjectID

	CreatorType       string
	Contribution      string
	Motivation        string
	AvailabilityHours int
	PortfolioURL      string

	Plan   string
	Amount float64
}

// Create files a new pending application. A user can hold at most one
// pending application per repository.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Application, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{
		"repo_id":      input.RepoID,
		"applicant_id": input.ApplicantID,
		"status":       models.ApplicationPending,
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPendingExists
	}

	now := time.Now().UTC()
	app := models.Application{
		ID:                primitive.NewObjectID(),
		Kind:              input.Kind,
		RepoID:            input.RepoID,
		ApplicantID:       input.ApplicantID,
		Status:            models.ApplicationPending,
		CreatorType:       input.CreatorType,
		Contribution:      input.Contribution,
		Motivation:        input.Motivation,
		AvailabilityHours: input.AvailabilityHours,
		PortfolioURL:      input.PortfolioURL,
		Plan:              input.Plan,
		Amount:            input.Amount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.c.InsertOne(ctx, app); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByID retrieves an application by ID. Returns mongo.ErrNoDocuments if
// not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var app models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Decide marks a pending application accepted or rejected. The update is
// conditional on the current status so two concurrent reviewers cannot
// both win.
func (s *Store) Decide(ctx context.Context, id, deciderID primitive.ObjectID, status string) (*models.Application, error) {
	now := time.Now().UTC()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ApplicationPending},
		bson.M{"$set": bson.M{
			"status":        status,
			"decided_by_id": deciderID,
			"decided_at":    now,
			"updated_at":    now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var app models.Application
	if err := res.Decode(&app); err != nil {
		if err == mongo.ErrNoDocuments {
			// Either missing or already decided; disambiguate for the caller.
			if _, gerr := s.GetByID(ctx, id); gerr == nil {
				return nil, ErrAlreadyDecided
			}
			return nil, mongo.ErrNoDocuments
		}
		return nil, err
	}
	return &app, nil
}

// ListByRepo returns a repository's applications, optionally filtered by
// status, newest first.
func (s *Store) ListByRepo(ctx context.Context, repoID primitive.ObjectID, status string) ([]models.Application, error) {
	filter := bson.M{"repo_id": repoID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

// ListByApplicant returns a user's own applications, newest first.
func (s *Store) ListByApplicant(ctx context.Context, applicantID primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx, bson.M{"applicant_id": applicantID})
}

// DeleteByRepo removes all applications for a repository. Used by the
// repository cascade delete.
func (s *Store) DeleteByRepo(ctx context.Context, repoID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"repo_id": repoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Application, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
