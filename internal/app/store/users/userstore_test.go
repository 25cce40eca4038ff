package userstore

import (
	"context"
	"testing"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func mustCreate(t *testing.T, ctx context.Context, store *Store, username, email string) *models.User {
	t.Helper()
	u, err := store.Create(ctx, CreateInput{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		UserType:     models.UserTypeStudent,
		IsPublic:     true,
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", username, err)
	}
	return u
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, CreateInput{
		Username:     "Ada",
		Email:        "Ada@Example.COM",
		PasswordHash: "hash",
		FirstName:    "  Ada ",
		LastName:     "Lovelace",
		UserType:     models.UserTypeResearcher,
		IsPublic:     true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lowercased %q", u.Email, "ada@example.com")
	}
	if u.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want trimmed %q", u.FirstName, "Ada")
	}
	if u.UsernameCI == "" || u.EmailCI == "" {
		t.Error("folded identity fields should be populated")
	}
}

func TestStore_Create_InvalidUserType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, CreateInput{
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: "x",
		UserType:     "wizard",
	})
	if err == nil {
		t.Fatal("Create() with invalid user type should fail")
	}
}

func TestStore_Create_DuplicateIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mustCreate(t, ctx, store, "ada", "ada@example.com")

	_, err := store.Create(ctx, CreateInput{
		Username:     "ADA",
		Email:        "other@example.com",
		PasswordHash: "x",
	})
	if err != ErrDuplicateUsername {
		t.Errorf("Create() with taken username error = %v, want ErrDuplicateUsername", err)
	}

	_, err = store.Create(ctx, CreateInput{
		Username:     "ada2",
		Email:        "ADA@example.com",
		PasswordHash: "x",
	})
	if err != ErrDuplicateEmail {
		t.Errorf("Create() with taken email error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := mustCreate(t, ctx, store, "ada", "ada@example.com")

	u, err := store.GetByEmail(ctx, "ADA@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("GetByEmail() returned %v, want %v", u.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByEmail() unknown error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Update_UsernameTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mustCreate(t, ctx, store, "ada", "ada@example.com")
	bob := mustCreate(t, ctx, store, "bob", "bob@example.com")

	name := "Ada"
	if err := store.Update(ctx, bob.ID, UpdateInput{Username: &name}); err != ErrDuplicateUsername {
		t.Errorf("Update() to taken username error = %v, want ErrDuplicateUsername", err)
	}

	// Re-saving your own username is not a conflict.
	own := "Bob"
	if err := store.Update(ctx, bob.ID, UpdateInput{Username: &own}); err != nil {
		t.Errorf("Update() to own username error = %v", err)
	}
}

func TestStore_UpdatePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := mustCreate(t, ctx, store, "ada", "ada@example.com")

	if err := store.UpdatePassword(ctx, u.ID, "newhash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PasswordHash != "newhash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "newhash")
	}
}

func TestStore_AdjustRepoCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := mustCreate(t, ctx, store, "ada", "ada@example.com")

	if err := store.AdjustRepoCount(ctx, u.ID, 1); err != nil {
		t.Fatalf("AdjustRepoCount(+1) error = %v", err)
	}
	if err := store.AdjustRepoCount(ctx, u.ID, 1); err != nil {
		t.Fatalf("AdjustRepoCount(+1) error = %v", err)
	}
	if err := store.AdjustRepoCount(ctx, u.ID, -1); err != nil {
		t.Fatalf("AdjustRepoCount(-1) error = %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.RepoCount != 1 {
		t.Errorf("RepoCount = %d, want 1", got.RepoCount)
	}
}

func TestStore_ListPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mustCreate(t, ctx, store, "ada", "ada@example.com")
	mustCreate(t, ctx, store, "adrian", "adrian@example.com")

	// A hidden profile never shows in the directory.
	if _, err := store.Create(ctx, CreateInput{
		Username:     "ghost",
		Email:        "ghost@example.com",
		PasswordHash: "x",
		IsPublic:     false,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	users, total, err := store.ListPublic(ctx, DirectoryOptions{})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("ListPublic() = %d users, total %d, want 2/2", len(users), total)
	}

	users, total, err = store.ListPublic(ctx, DirectoryOptions{Search: "adr"})
	if err != nil {
		t.Fatalf("ListPublic(search) error = %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Username != "adrian" {
		t.Errorf("ListPublic(search adr) = %+v, total %d, want just adrian", users, total)
	}

	users, _, err = store.ListPublic(ctx, DirectoryOptions{UserType: models.UserTypeBusiness})
	if err != nil {
		t.Fatalf("ListPublic(type) error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("ListPublic(type business) = %d users, want 0", len(users))
	}
}
