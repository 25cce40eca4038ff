// internal/app/store/repository/repositorystore.go

// Package repository provides storage for content repositories and their
// participant rosters.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduvault/internal/app/store/storeutil"
	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyParticipant is returned when adding a user who is already
	// on the roster.
	ErrAlreadyParticipant = errors.New("user is already a participant")

	errBadPrivacy = errors.New(`privacy must be "public"|"private"`)
	errBadType    = errors.New(`type_repo must be "normal"|"creator"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("repositories")}
}

// CreateInput contains the input for creating a repository.
type CreateInput struct {
	Name        string
	Description string
	Privacy     string
	TypeRepo    string
	OwnerID     primitive.ObjectID
}

// Create creates a new repository. The owner is enrolled as an active
// admin participant.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Repository, error) {
	privacy := normalize.Role(input.Privacy)
	if privacy == "" {
		privacy = models.PrivacyPrivate
	}
	if privacy != models.PrivacyPublic && privacy != models.PrivacyPrivate {
		return nil, errBadPrivacy
	}

	typeRepo := normalize.Role(input.TypeRepo)
	if typeRepo == "" {
		typeRepo = models.RepoTypeNormal
	}
	if typeRepo != models.RepoTypeNormal && typeRepo != models.RepoTypeCreator {
		return nil, errBadType
	}

	name := normalize.Name(input.Name)
	now := time.Now().UTC()
	repo := models.Repository{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: input.Description,
		Privacy:     privacy,
		TypeRepo:    typeRepo,
		OwnerID:     input.OwnerID,
		Participants: []models.Participant{{
			UserID: input.OwnerID,
			Role:   models.ParticipantAdmin,
			Status: models.ParticipantActive,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetByID retrieves a repository by ID. Returns mongo.ErrNoDocuments if
// not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Repository, error) {
	var repo models.Repository
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// UpdateInput contains the optional fields for updating a repository.
type UpdateInput struct {
	Name        *string
	Description *string
	Privacy     *string
}

// Update updates a repository's attributes. Only non-nil fields are written.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if input.Name != nil {
		name := normalize.Name(*input.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Privacy != nil {
		privacy := normalize.Role(*input.Privacy)
		if privacy != models.PrivacyPublic && privacy != models.PrivacyPrivate {
			return errBadPrivacy
		}
		set["privacy"] = privacy
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Delete deletes a repository document. The caller is responsible for
// cascading to folders, files, and related collections first.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddParticipant appends a user to the roster with the given role.
func (s *Store) AddParticipant(ctx context.Context, repoID, userID primitive.ObjectID, role string) error {
	repo, err := s.GetByID(ctx, repoID)
	if err != nil {
		return err
	}
	for _, p := range repo.Participants {
		if p.UserID == userID {
			return ErrAlreadyParticipant
		}
	}

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": repoID}, bson.M{
		"$push": bson.M{"participants": models.Participant{
			UserID: userID,
			Role:   role,
			Status: models.ParticipantActive,
		}},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetParticipantStatus flips a participant between active and inactive.
func (s *Store) SetParticipantStatus(ctx context.Context, repoID, userID primitive.ObjectID, status string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": repoID, "participants.user_id": userID},
		bson.M{"$set": bson.M{
			"participants.$.status": status,
			"updated_at":            time.Now().UTC(),
		}},
	)
	return err
}

// RemoveParticipant drops a user from the roster entirely.
func (s *Store) RemoveParticipant(ctx context.Context, repoID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": repoID}, bson.M{
		"$pull": bson.M{"participants": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ListOptions filters repository listings.
type ListOptions struct {
	Search string // name prefix, case-insensitive
	Limit  int64
	Page   int64 // 1-based
}

// ListPublic returns public repositories for the catalog, sorted by name.
func (s *Store) ListPublic(ctx context.Context, opts ListOptions) ([]models.Repository, int64, error) {
	filter := bson.M{"privacy": models.PrivacyPublic}
	if opts.Search != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + text.Fold(opts.Search)}
	}
	return s.list(ctx, filter, opts)
}

// ListByOwner returns the repositories a user owns, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Repository, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var repos []models.Repository
	if err := cur.All(ctx, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListByParticipant returns repositories where the user is an active
// participant, the ones they own included.
func (s *Store) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Repository, error) {
	filter := bson.M{
		"participants": bson.M{"$elemMatch": bson.M{
			"user_id": userID,
			"status":  models.ParticipantActive,
		}},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var repos []models.Repository
	if err := cur.All(ctx, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (s *Store) list(ctx context.Context, filter bson.M, opts ListOptions) ([]models.Repository, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := storeutil.Paginate(opts.Limit, opts.Page).
		SetSort(bson.D{{Key: "name_ci", Value: 1}})

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var repos []models.Repository
	if err := cur.All(ctx, &repos); err != nil {
		return nil, 0, err
	}
	return repos, total, nil
}
