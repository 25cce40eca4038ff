// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduvault/internal/app/store/storeutil"
	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("a user with this username already exists")

	errBadUserType = errors.New("invalid user type")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads multiple users by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	folded := text.Fold(normalize.Email(email))
	if err := s.c.FindOne(ctx, bson.M{"email_ci": folded}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by case/diacritic-insensitive username.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	folded := text.Fold(normalize.Username(username))
	if err := s.c.FindOne(ctx, bson.M{"username_ci": folded}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateInput holds the fields for registering a new user.
type CreateInput struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	UserType     string
	IsPublic     bool
}

// Create inserts a new user after normalizing identity fields.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	if input.UserType != "" && !models.IsValidUserType(input.UserType) {
		return nil, errBadUserType
	}

	username := normalize.Username(input.Username)
	email := normalize.Email(input.Email)

	// The unique indexes are the arbiter, but checking first turns the
	// common conflict into the precise error instead of a generic dup.
	if taken, err := s.usernameTaken(ctx, username, nil); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateUsername
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: input.PasswordHash,
		FirstName:    normalize.Name(input.FirstName),
		LastName:     normalize.Name(input.LastName),
		UserType:     input.UserType,
		IsPublic:     input.IsPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// UpdateInput holds the optional profile fields for updating a user.
// All fields are pointers - nil means "don't update this field".
type UpdateInput struct {
	Username     *string
	FirstName    *string
	LastName     *string
	Bio          *string
	ProfileImage *string
	Hobbies      *[]string
	UserType     *string
	IsPublic     *bool
}

// Update updates a user's profile. Only non-nil fields are written.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}

	if input.Username != nil {
		username := normalize.Username(*input.Username)
		if taken, err := s.usernameTaken(ctx, username, &id); err != nil {
			return err
		} else if taken {
			return ErrDuplicateUsername
		}
		set["username"] = username
		set["username_ci"] = text.Fold(username)
	}
	if input.FirstName != nil {
		set["first_name"] = normalize.Name(*input.FirstName)
	}
	if input.LastName != nil {
		set["last_name"] = normalize.Name(*input.LastName)
	}
	if input.Bio != nil {
		set["bio"] = *input.Bio
	}
	if input.ProfileImage != nil {
		set["profile_image"] = *input.ProfileImage
	}
	if input.Hobbies != nil {
		set["hobbies"] = *input.Hobbies
	}
	if input.UserType != nil {
		if !models.IsValidUserType(*input.UserType) {
			return errBadUserType
		}
		set["user_type"] = *input.UserType
	}
	if input.IsPublic != nil {
		set["is_public"] = *input.IsPublic
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	set := bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// AdjustRepoCount shifts the denormalized owned-repository counter.
func (s *Store) AdjustRepoCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"repo_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// DirectoryOptions filters the public user directory.
type DirectoryOptions struct {
	UserType string
	Search   string // matches username prefix, case-insensitive
	Limit    int64
	Page     int64 // 1-based
}

// ListPublic returns publicly visible users for the directory, sorted by
// username.
func (s *Store) ListPublic(ctx context.Context, opts DirectoryOptions) ([]models.User, int64, error) {
	filter := bson.M{"is_public": true}
	if opts.UserType != "" {
		filter["user_type"] = opts.UserType
	}
	if opts.Search != "" {
		filter["username_ci"] = bson.M{"$regex": "^" + text.Fold(opts.Search)}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := storeutil.Paginate(opts.Limit, opts.Page).
		SetSort(bson.D{{Key: "username_ci", Value: 1}})

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Delete deletes a user by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of users matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

func (s *Store) usernameTaken(ctx context.Context, username string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{"username_ci": text.Fold(username)}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	err := s.c.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
