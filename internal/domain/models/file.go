// internal/domain/models/file.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a stored document inside a repository, optionally placed in a
// folder (nil FolderID = repository root). The blob itself lives in the
// media store under StoragePath; this record carries the metadata.
type File struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename     string             `bson:"filename" json:"filename"`           // object name in the media store
	OriginalName string             `bson:"original_name" json:"original_name"` // name as uploaded
	ContentType  string             `bson:"content_type" json:"content_type"`
	Size         int64              `bson:"size" json:"size"`

	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Importance  int      `bson:"importance" json:"importance"` // 0-3
	Sensitive   bool     `bson:"sensitive" json:"sensitive"`   // members-only even in public repos

	RepositoryID primitive.ObjectID  `bson:"repository_id" json:"repository_id"`
	FolderID     *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id,omitempty"` // nil = root level
	UploadedByID primitive.ObjectID  `bson:"uploaded_by_id" json:"uploaded_by_id"`

	StoragePath string `bson:"storage_path,omitempty" json:"-"` // media store object key
	Checksum    string `bson:"checksum,omitempty" json:"checksum,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsInRoot returns true if the file sits at the repository root.
func (f *File) IsInRoot() bool {
	return f.FolderID == nil
}
