// Package file provides storage for uploaded file metadata. The blob
// itself lives in the media store; documents here carry the object key.
package file

import (
	"context"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("files"),
	}
}

// CreateInput contains the input for recording an uploaded file.
type CreateInput struct {
	Filename     string
	OriginalName string
	ContentType  string
	Size         int64
	Title        string
	Description  string
	Tags         []string
	Importance   int
	Sensitive    bool
	RepositoryID primitive.ObjectID
	FolderID     *primitive.ObjectID
	UploadedByID primitive.ObjectID
	StoragePath  string
	Checksum     string
}

// Create records an uploaded file.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	title := input.Title
	if title == "" {
		title = input.OriginalName
	}

	now := time.Now().UTC()
	f := models.File{
		ID:           primitive.NewObjectID(),
		Filename:     input.Filename,
		OriginalName: input.OriginalName,
		ContentType:  input.ContentType,
		Size:         input.Size,
		Title:        title,
		Description:  input.Description,
		Tags:         input.Tags,
		Importance:   input.Importance,
		Sensitive:    input.Sensitive,
		RepositoryID: input.RepositoryID,
		FolderID:     input.FolderID,
		UploadedByID: input.UploadedByID,
		StoragePath:  input.StoragePath,
		Checksum:     input.Checksum,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a file by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateInput contains the optional metadata fields for updating a file.
type UpdateInput struct {
	Title       *string
	Description *string
	Tags        *[]string
	Importance  *int
	Sensitive   *bool
}

// Update updates a file's metadata. Only non-nil fields are written.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Tags != nil {
		set["tags"] = *input.Tags
	}
	if input.Importance != nil {
		set["importance"] = *input.Importance
	}
	if input.Sensitive != nil {
		set["sensitive"] = *input.Sensitive
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Delete deletes a file record.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByFolder returns the files directly inside a folder, newest first.
// Pass nil for folderID to list files at the repository root.
func (s *Store) ListByFolder(ctx context.Context, repoID primitive.ObjectID, folderID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{
		"repository_id": repoID,
		"folder_id":     folderID,
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListByFolders returns all files inside any of the given folders. Used by
// the folder cascade delete to find blobs that must go with the subtree.
func (s *Store) ListByFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.c.Find(ctx, bson.M{"folder_id": bson.M{"$in": folderIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteByFolders removes all file records inside any of the given folders.
func (s *Store) DeleteByFolders(ctx context.Context, folderIDs []primitive.ObjectID) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"folder_id": bson.M{"$in": folderIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByRepository returns every file in a repository. Used by the
// repository cascade delete.
func (s *Store) ListByRepository(ctx context.Context, repoID primitive.ObjectID) ([]models.File, error) {
	cursor, err := s.c.Find(ctx, bson.M{"repository_id": repoID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteByRepository removes every file record in a repository.
func (s *Store) DeleteByRepository(ctx context.Context, repoID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"repository_id": repoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByFolder returns the number of files directly inside a folder.
func (s *Store) CountByFolder(ctx context.Context, repoID primitive.ObjectID, folderID *primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"repository_id": repoID,
		"folder_id":     folderID,
	})
}
