// internal/domain/models/folder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder nesting is capped; a root folder is level 0, so the deepest
// reachable folder sits at level MaxFolderLevel.
const MaxFolderLevel = 10

// DefaultFolderColor is the institutional default used when a folder is
// created without an explicit color.
const DefaultFolderColor = "#9D0045"

// Folder is a named container inside a repository. Folders form a forest
// per repository: ParentID nil means root level, otherwise the parent must
// belong to the same repository.
//
// Path and Level are derived from the ancestor chain and recomputed whenever
// Name or ParentID changes, for this folder and its whole subtree.
type Folder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Color       string             `bson:"color" json:"color"`

	RepositoryID primitive.ObjectID  `bson:"repository_id" json:"repository_id"`
	ParentID     *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // nil = root level

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`

	Path  string `bson:"path" json:"path"`   // "/" + "/"-joined ancestor names + own name
	Level int    `bson:"level" json:"level"` // 0 for root folders

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsRoot returns true if the folder sits at the repository root.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// BreadcrumbEntry is one hop of a folder's ancestry, root-most first.
type BreadcrumbEntry struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Level int                `bson:"level" json:"level"`
}
