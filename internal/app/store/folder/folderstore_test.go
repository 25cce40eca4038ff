package folder

import (
	"context"
	"testing"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func mustCreate(t *testing.T, ctx context.Context, store *Store, repoID primitive.ObjectID, name string, parentID *primitive.ObjectID) *models.Folder {
	t.Helper()
	f, err := store.Create(ctx, CreateInput{
		Name:         name,
		RepositoryID: repoID,
		ParentID:     parentID,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return f
}

func TestStore_Create_Root(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		Name:         "Lectures",
		Description:  "Course lectures",
		RepositoryID: repoID,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if f.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if f.Path != "/Lectures" {
		t.Errorf("Path = %q, want %q", f.Path, "/Lectures")
	}
	if f.Level != 0 {
		t.Errorf("Level = %d, want 0", f.Level)
	}
	if f.ParentID != nil {
		t.Error("ParentID should be nil for a root folder")
	}
	if f.Color != models.DefaultFolderColor {
		t.Errorf("Color = %q, want default %q", f.Color, models.DefaultFolderColor)
	}
}

func TestStore_Create_Child(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	parent := mustCreate(t, ctx, store, repoID, "Lectures", nil)
	child := mustCreate(t, ctx, store, repoID, "Week 1", &parent.ID)

	if child.Path != "/Lectures/Week 1" {
		t.Errorf("Path = %q, want %q", child.Path, "/Lectures/Week 1")
	}
	if child.Level != 1 {
		t.Errorf("Level = %d, want 1", child.Level)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("ParentID = %v, want %v", child.ParentID, parent.ID)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	parent := mustCreate(t, ctx, store, repoID, "Docs", nil)
	mustCreate(t, ctx, store, repoID, "Drafts", &parent.ID)

	_, err := store.Create(ctx, CreateInput{
		Name:         "Drafts",
		RepositoryID: repoID,
		ParentID:     &parent.ID,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != ErrDuplicateName {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateName", err)
	}

	// Same name is fine under a different parent.
	other := mustCreate(t, ctx, store, repoID, "Archive", nil)
	if _, err := store.Create(ctx, CreateInput{
		Name:         "Drafts",
		RepositoryID: repoID,
		ParentID:     &other.ID,
		CreatedByID:  primitive.NewObjectID(),
	}); err != nil {
		t.Errorf("Create() under different parent error = %v", err)
	}

	// And fine in a different repository.
	if _, err := store.Create(ctx, CreateInput{
		Name:         "Docs",
		RepositoryID: primitive.NewObjectID(),
		CreatedByID:  primitive.NewObjectID(),
	}); err != nil {
		t.Errorf("Create() in different repository error = %v", err)
	}
}

func TestStore_Create_NestingLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	parent := mustCreate(t, ctx, store, repoID, "L0", nil)
	for i := 1; i <= models.MaxFolderLevel; i++ {
		parent = mustCreate(t, ctx, store, repoID, "deep", &parent.ID)
	}
	if parent.Level != models.MaxFolderLevel {
		t.Fatalf("deepest Level = %d, want %d", parent.Level, models.MaxFolderLevel)
	}

	_, err := store.Create(ctx, CreateInput{
		Name:         "too deep",
		RepositoryID: repoID,
		ParentID:     &parent.ID,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != ErrNestingLimit {
		t.Errorf("Create() past limit error = %v, want ErrNestingLimit", err)
	}
}

func TestStore_Create_MissingParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	ghost := primitive.NewObjectID()

	_, err := store.Create(ctx, CreateInput{
		Name:         "Orphan",
		RepositoryID: repoID,
		ParentID:     &ghost,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != ErrParentNotFound {
		t.Fatalf("Create() error = %v, want ErrParentNotFound", err)
	}

	// Nothing may have been written at the root as a side effect.
	roots, err := store.ListChildren(ctx, repoID, nil)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(roots) != 0 {
		t.Errorf("len(roots) = %d, want 0", len(roots))
	}
}

func TestStore_Create_ParentFromOtherRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	otherRepo := primitive.NewObjectID()
	foreign := mustCreate(t, ctx, store, otherRepo, "Foreign", nil)

	_, err := store.Create(ctx, CreateInput{
		Name:         "Local",
		RepositoryID: primitive.NewObjectID(),
		ParentID:     &foreign.ID,
		CreatedByID:  primitive.NewObjectID(),
	})
	if err != ErrParentMismatch {
		t.Fatalf("Create() error = %v, want ErrParentMismatch", err)
	}
}

func TestStore_ListChildren(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	parent := mustCreate(t, ctx, store, repoID, "Parent", nil)
	mustCreate(t, ctx, store, repoID, "b", &parent.ID)
	mustCreate(t, ctx, store, repoID, "a", &parent.ID)
	mustCreate(t, ctx, store, repoID, "Other root", nil)

	children, err := store.ListChildren(ctx, repoID, &parent.ID)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
	if children[0].Name != "a" || children[1].Name != "b" {
		t.Errorf("children not sorted by name: %q, %q", children[0].Name, children[1].Name)
	}

	roots, err := store.ListChildren(ctx, repoID, nil)
	if err != nil {
		t.Fatalf("ListChildren(root) error = %v", err)
	}
	if len(roots) != 2 {
		t.Errorf("len(roots) = %d, want 2", len(roots))
	}
}

func TestStore_Update_RenameRewritesSubtree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Old", nil)
	mid := mustCreate(t, ctx, store, repoID, "Mid", &top.ID)
	leaf := mustCreate(t, ctx, store, repoID, "Leaf", &mid.ID)

	name := "New"
	updated, err := store.Update(ctx, top.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Path != "/New" {
		t.Errorf("Path = %q, want %q", updated.Path, "/New")
	}

	gotMid, _ := store.GetByID(ctx, mid.ID)
	if gotMid.Path != "/New/Mid" {
		t.Errorf("mid Path = %q, want %q", gotMid.Path, "/New/Mid")
	}
	gotLeaf, _ := store.GetByID(ctx, leaf.ID)
	if gotLeaf.Path != "/New/Mid/Leaf" {
		t.Errorf("leaf Path = %q, want %q", gotLeaf.Path, "/New/Mid/Leaf")
	}
	if gotLeaf.Level != 2 {
		t.Errorf("leaf Level = %d, want 2 (rename must not change levels)", gotLeaf.Level)
	}
}

func TestStore_Update_RenameToSiblingName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	mustCreate(t, ctx, store, repoID, "Taken", nil)
	f := mustCreate(t, ctx, store, repoID, "Free", nil)

	name := "Taken"
	if _, err := store.Update(ctx, f.ID, UpdateInput{Name: &name}); err != ErrDuplicateName {
		t.Errorf("Update() error = %v, want ErrDuplicateName", err)
	}
}

func TestStore_Move_RecomputesSubtree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	src := mustCreate(t, ctx, store, repoID, "Source", nil)
	child := mustCreate(t, ctx, store, repoID, "Child", &src.ID)
	grand := mustCreate(t, ctx, store, repoID, "Grand", &child.ID)
	dst := mustCreate(t, ctx, store, repoID, "Dest", nil)
	dstChild := mustCreate(t, ctx, store, repoID, "Inner", &dst.ID)

	moved, err := store.Move(ctx, child.ID, &dstChild.ID)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.Path != "/Dest/Inner/Child" {
		t.Errorf("Path = %q, want %q", moved.Path, "/Dest/Inner/Child")
	}
	if moved.Level != 2 {
		t.Errorf("Level = %d, want 2", moved.Level)
	}

	gotGrand, _ := store.GetByID(ctx, grand.ID)
	if gotGrand.Path != "/Dest/Inner/Child/Grand" {
		t.Errorf("grand Path = %q, want %q", gotGrand.Path, "/Dest/Inner/Child/Grand")
	}
	if gotGrand.Level != 3 {
		t.Errorf("grand Level = %d, want 3", gotGrand.Level)
	}
}

func TestStore_Move_ToRoot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	parent := mustCreate(t, ctx, store, repoID, "Parent", nil)
	child := mustCreate(t, ctx, store, repoID, "Child", &parent.ID)

	moved, err := store.Move(ctx, child.ID, nil)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.ParentID != nil {
		t.Error("ParentID should be nil after moving to root")
	}
	if moved.Path != "/Child" || moved.Level != 0 {
		t.Errorf("Path/Level = %q/%d, want /Child/0", moved.Path, moved.Level)
	}
}

func TestStore_Move_SelfAndCycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Top", nil)
	child := mustCreate(t, ctx, store, repoID, "Child", &top.ID)
	grand := mustCreate(t, ctx, store, repoID, "Grand", &child.ID)

	if _, err := store.Move(ctx, top.ID, &top.ID); err != ErrSelfMove {
		t.Errorf("Move(self) error = %v, want ErrSelfMove", err)
	}
	if _, err := store.Move(ctx, top.ID, &grand.ID); err != ErrCycleMove {
		t.Errorf("Move(into descendant) error = %v, want ErrCycleMove", err)
	}

	// Unrelated folder with a name-prefix overlap must not be mistaken
	// for a descendant.
	topPrefix := mustCreate(t, ctx, store, repoID, "Top extra", nil)
	if _, err := store.Move(ctx, top.ID, &topPrefix.ID); err != nil {
		t.Errorf("Move(into sibling with prefix name) error = %v", err)
	}
}

func TestStore_Move_NestingLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	deep := mustCreate(t, ctx, store, repoID, "D0", nil)
	for i := 1; i < models.MaxFolderLevel; i++ {
		deep = mustCreate(t, ctx, store, repoID, "deep", &deep.ID)
	}

	// Subtree of height 2: moving it under the deepest folder would push
	// its leaf past the cap.
	top := mustCreate(t, ctx, store, repoID, "Movable", nil)
	mustCreate(t, ctx, store, repoID, "Leaf", &top.ID)

	if _, err := store.Move(ctx, top.ID, &deep.ID); err != ErrNestingLimit {
		t.Errorf("Move() past limit error = %v, want ErrNestingLimit", err)
	}
}

func TestStore_Move_DuplicateAtDestination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	dst := mustCreate(t, ctx, store, repoID, "Dest", nil)
	mustCreate(t, ctx, store, repoID, "Same", &dst.ID)
	f := mustCreate(t, ctx, store, repoID, "Same", nil)

	if _, err := store.Move(ctx, f.ID, &dst.ID); err != ErrDuplicateName {
		t.Errorf("Move() error = %v, want ErrDuplicateName", err)
	}
}

func TestStore_Move_MissingParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	f := mustCreate(t, ctx, store, repoID, "Folder", nil)
	ghost := primitive.NewObjectID()

	if _, err := store.Move(ctx, f.ID, &ghost); err != ErrParentNotFound {
		t.Errorf("Move() error = %v, want ErrParentNotFound", err)
	}
}

func TestStore_SubtreeDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Top", nil)
	child := mustCreate(t, ctx, store, repoID, "Child", &top.ID)
	grand := mustCreate(t, ctx, store, repoID, "Grand", &child.ID)
	keep := mustCreate(t, ctx, store, repoID, "Keep", nil)

	ids, err := store.SubtreeIDs(ctx, top.ID)
	if err != nil {
		t.Fatalf("SubtreeIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("subtree has %d folders, want 3", len(ids))
	}
	// Deepest first.
	want := []primitive.ObjectID{grand.ID, child.ID, top.ID}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, id.Hex(), want[i].Hex())
		}
	}

	n, err := store.DeleteByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("DeleteByIDs() error = %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d folders, want 3", n)
	}

	for _, id := range []primitive.ObjectID{top.ID, child.ID, grand.ID} {
		if _, err := store.GetByID(ctx, id); err != mongo.ErrNoDocuments {
			t.Errorf("folder %s still present after delete", id.Hex())
		}
	}
	if _, err := store.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("unrelated folder was deleted: %v", err)
	}

	// A vanished folder yields an empty subtree, so a retried cascade is
	// a no-op, not an error.
	ids, err = store.SubtreeIDs(ctx, top.ID)
	if err != nil {
		t.Errorf("SubtreeIDs() second call error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("second collection found %d folders, want 0", len(ids))
	}
}

func TestStore_Breadcrumbs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Top", nil)
	mid := mustCreate(t, ctx, store, repoID, "Mid", &top.ID)
	leaf := mustCreate(t, ctx, store, repoID, "Leaf", &mid.ID)

	trail, err := store.Breadcrumbs(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("Breadcrumbs() error = %v", err)
	}
	want := []string{"Top", "Mid", "Leaf"}
	if len(trail) != len(want) {
		t.Fatalf("len(trail) = %d, want %d", len(trail), len(want))
	}
	for i, name := range want {
		if trail[i].Name != name {
			t.Errorf("trail[%d].Name = %q, want %q", i, trail[i].Name, name)
		}
		if trail[i].Level != i {
			t.Errorf("trail[%d].Level = %d, want %d", i, trail[i].Level, i)
		}
	}
}

func TestStore_Breadcrumbs_DanglingParentTruncates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Top", nil)
	mid := mustCreate(t, ctx, store, repoID, "Mid", &top.ID)
	leaf := mustCreate(t, ctx, store, repoID, "Leaf", &mid.ID)

	// Remove the middle folder directly, leaving leaf's parent dangling.
	if _, err := db.Collection("folders").DeleteOne(ctx, bson.M{"_id": mid.ID}); err != nil {
		t.Fatalf("raw delete: %v", err)
	}

	trail, err := store.Breadcrumbs(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("Breadcrumbs() error = %v", err)
	}
	if len(trail) != 1 || trail[0].Name != "Leaf" {
		t.Errorf("trail = %+v, want just the leaf", trail)
	}
}

func TestStore_DeleteByRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	top := mustCreate(t, ctx, store, repoID, "Top", nil)
	mustCreate(t, ctx, store, repoID, "Child", &top.ID)
	other := mustCreate(t, ctx, store, primitive.NewObjectID(), "Other", nil)

	n, err := store.DeleteByRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("DeleteByRepository() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if _, err := store.GetByID(ctx, other.ID); err != nil {
		t.Errorf("folder in other repository was deleted: %v", err)
	}
}
