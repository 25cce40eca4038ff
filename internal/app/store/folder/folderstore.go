// Package folder provides storage for repository folders.
//
// Folders form a forest per repository. Each document carries a
// materialized path ("/" + slash-joined ancestor names + own name) and a
// level (0 for root folders). Both are derived on every write that touches
// the folder's name or parent, for the folder and its entire subtree, so
// reads never have to walk the tree to know where a folder sits.
package folder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateName is returned when a folder with the same name already
	// exists under the same parent in the same repository.
	ErrDuplicateName = errors.New("a folder with this name already exists here")

	// ErrNestingLimit is returned when an operation would place a folder
	// (or one of its descendants) deeper than models.MaxFolderLevel.
	ErrNestingLimit = errors.New("folder nesting limit exceeded")

	// ErrSelfMove is returned when a folder is moved into itself.
	ErrSelfMove = errors.New("cannot move a folder into itself")

	// ErrCycleMove is returned when a folder is moved into one of its own
	// descendants.
	ErrCycleMove = errors.New("cannot move a folder into its own subtree")

	// ErrParentNotFound is returned when the requested parent folder does
	// not exist in the target repository.
	ErrParentNotFound = errors.New("parent folder not found")

	// ErrParentMismatch is returned when the requested parent folder
	// belongs to a different repository.
	ErrParentMismatch = errors.New("parent folder belongs to a different repository")
)

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("folders"),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name         string
	Description  string
	Color        string
	RepositoryID primitive.ObjectID
	ParentID     *primitive.ObjectID
	CreatedByID  primitive.ObjectID
}

// Create creates a new folder, deriving path and level from the parent.
// The parent must exist and live in the same repository; a stale or
// foreign parent reference fails the create rather than silently placing
// the folder somewhere the client did not ask for.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	parentPath := ""
	level := 0
	parentID := input.ParentID

	if parentID != nil {
		parent, err := s.GetByID(ctx, *parentID)
		if err == mongo.ErrNoDocuments {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.RepositoryID != input.RepositoryID {
			return nil, ErrParentMismatch
		}
		parentPath = parent.Path
		level = parent.Level + 1
	}

	if level > models.MaxFolderLevel {
		return nil, ErrNestingLimit
	}

	color := input.Color
	if color == "" {
		color = models.DefaultFolderColor
	}

	now := time.Now().UTC()
	f := models.Folder{
		ID:           primitive.NewObjectID(),
		Name:         input.Name,
		Description:  input.Description,
		Color:        color,
		RepositoryID: input.RepositoryID,
		ParentID:     parentID,
		CreatedByID:  input.CreatedByID,
		Path:         parentPath + "/" + input.Name,
		Level:        level,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return &f, nil
}

// GetByID retrieves a folder by ID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) getInRepo(ctx context.Context, id, repoID primitive.ObjectID) (*models.Folder, error) {
	var f models.Folder
	err := s.c.FindOne(ctx, bson.M{"_id": id, "repository_id": repoID}).Decode(&f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListChildren returns the folders directly under parentID within a
// repository, sorted by name. Pass nil for parentID to list root folders.
func (s *Store) ListChildren(ctx context.Context, repoID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{
		"repository_id": repoID,
		"parent_id":     parentID,
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// UpdateInput contains the input for updating a folder's own attributes.
type UpdateInput struct {
	Name        *string
	Description *string
	Color       *string
}

// Update updates a folder's name, description, or color. Renaming rewrites
// the materialized path of the folder and every descendant.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*models.Folder, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Color != nil {
		set["color"] = *input.Color
	}

	renamed := input.Name != nil && *input.Name != f.Name
	if renamed {
		exists, err := s.nameExists(ctx, f.RepositoryID, f.ParentID, *input.Name, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateName
		}

		newPath := parentPrefix(f.Path, f.Name) + "/" + *input.Name
		set["name"] = *input.Name
		set["path"] = newPath

		if err := s.rewriteSubtreePaths(ctx, f.RepositoryID, f.Path, newPath, 0); err != nil {
			return nil, err
		}
	}

	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Move reparents a folder. Pass nil for newParentID to move it to the
// repository root. The folder cannot be moved into itself or into any of
// its descendants, and the move must keep the deepest descendant within
// the nesting limit. Path and level are recomputed for the whole subtree.
func (s *Store) Move(ctx context.Context, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Folder, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newParentPath := ""
	newLevel := 0
	if newParentID != nil {
		if *newParentID == id {
			return nil, ErrSelfMove
		}
		parent, err := s.getInRepo(ctx, *newParentID, f.RepositoryID)
		if err == mongo.ErrNoDocuments {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		// A descendant's path always extends the ancestor's path.
		if strings.HasPrefix(parent.Path+"/", f.Path+"/") {
			return nil, ErrCycleMove
		}
		newParentPath = parent.Path
		newLevel = parent.Level + 1
	}

	levelDelta := newLevel - f.Level
	if levelDelta != 0 {
		deepest, err := s.maxSubtreeLevel(ctx, f.RepositoryID, f.Path)
		if err != nil {
			return nil, err
		}
		if deepest+levelDelta > models.MaxFolderLevel {
			return nil, ErrNestingLimit
		}
	}

	exists, err := s.nameExists(ctx, f.RepositoryID, newParentID, f.Name, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateName
	}

	newPath := newParentPath + "/" + f.Name
	set := bson.M{
		"path":       newPath,
		"level":      newLevel,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if newParentID == nil {
		update["$unset"] = bson.M{"parent_id": ""}
	} else {
		set["parent_id"] = *newParentID
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	if err := s.rewriteSubtreePaths(ctx, f.RepositoryID, f.Path, newPath, levelDelta); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// SubtreeIDs returns the IDs of a folder and every descendant folder,
// deepest first. A folder that no longer exists yields an empty result,
// not an error.
func (s *Store) SubtreeIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	f, err := s.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	descendants, err := s.listSubtree(ctx, f.RepositoryID, f.Path)
	if err != nil {
		return nil, err
	}

	// Deepest first, so a failure partway leaves no orphaned children.
	ids := make([]primitive.ObjectID, 0, len(descendants))
	for i := len(descendants) - 1; i >= 0; i-- {
		ids = append(ids, descendants[i].ID)
	}
	return ids, nil
}

// DeleteByIDs removes the given folders and returns how many were still
// present.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Breadcrumbs returns the ancestry of a folder, root-most first, ending
// with the folder itself. If an ancestor link is dangling (the parent was
// deleted out from under the folder), the trail is truncated at the break
// rather than failing.
func (s *Store) Breadcrumbs(ctx context.Context, id primitive.ObjectID) ([]models.BreadcrumbEntry, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	trail := []models.BreadcrumbEntry{{ID: f.ID, Name: f.Name, Level: f.Level}}

	currentParentID := f.ParentID
	for currentParentID != nil {
		parent, err := s.GetByID(ctx, *currentParentID)
		if err == mongo.ErrNoDocuments {
			break
		}
		if err != nil {
			return nil, err
		}
		trail = append([]models.BreadcrumbEntry{{ID: parent.ID, Name: parent.Name, Level: parent.Level}}, trail...)
		currentParentID = parent.ParentID
	}

	return trail, nil
}

// CountByRepository returns the number of folders in a repository.
func (s *Store) CountByRepository(ctx context.Context, repoID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"repository_id": repoID})
}

// DeleteByRepository removes every folder in a repository. Used by the
// repository cascade delete.
func (s *Store) DeleteByRepository(ctx context.Context, repoID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"repository_id": repoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

/* -------------------------------------------------------------------------- */
/* internals                                                                   */
/* -------------------------------------------------------------------------- */

// parentPrefix strips the trailing "/<name>" segment from a path.
// For a root folder the result is "".
func parentPrefix(path, name string) string {
	return strings.TrimSuffix(path, "/"+name)
}

func (s *Store) nameExists(ctx context.Context, repoID primitive.ObjectID, parentID *primitive.ObjectID, name string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"repository_id": repoID,
		"parent_id":     parentID,
		"name":          name,
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	count, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// listSubtree returns a folder and all its descendants, shallowest first.
func (s *Store) listSubtree(ctx context.Context, repoID primitive.ObjectID, path string) ([]models.Folder, error) {
	filter := bson.M{
		"repository_id": repoID,
		"$or": []bson.M{
			{"path": path},
			{"path": bson.M{"$regex": "^" + regexEscape(path) + "/"}},
		},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// maxSubtreeLevel returns the level of the deepest folder in a subtree.
func (s *Store) maxSubtreeLevel(ctx context.Context, repoID primitive.ObjectID, path string) (int, error) {
	subtree, err := s.listSubtree(ctx, repoID, path)
	if err != nil {
		return 0, err
	}
	deepest := 0
	for _, f := range subtree {
		if f.Level > deepest {
			deepest = f.Level
		}
	}
	return deepest, nil
}

// rewriteSubtreePaths replaces the oldPath prefix with newPath and shifts
// level by levelDelta for every strict descendant of the moved or renamed
// folder. The folder itself is updated by the caller.
func (s *Store) rewriteSubtreePaths(ctx context.Context, repoID primitive.ObjectID, oldPath, newPath string, levelDelta int) error {
	filter := bson.M{
		"repository_id": repoID,
		"path":          bson.M{"$regex": "^" + regexEscape(oldPath) + "/"},
	}

	cursor, err := s.c.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	now := time.Now().UTC()
	for cursor.Next(ctx) {
		var d models.Folder
		if err := cursor.Decode(&d); err != nil {
			return err
		}
		rewritten := newPath + strings.TrimPrefix(d.Path, oldPath)
		update := bson.M{"$set": bson.M{
			"path":       rewritten,
			"level":      d.Level + levelDelta,
			"updated_at": now,
		}}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": d.ID}, update); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// regexEscape quotes regex metacharacters so folder names containing
// dots or brackets cannot widen a path-prefix match.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
