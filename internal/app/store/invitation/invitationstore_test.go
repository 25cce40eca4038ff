package invitation

import (
	"testing"
	"time"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	inv, err := store.Create(ctx, CreateInput{
		RepoID:      repoID,
		Email:       "Student@Example.COM",
		Role:        "Reader",
		InvitedByID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if inv.Email != "student@example.com" {
		t.Errorf("Email = %q, want lowercased", inv.Email)
	}
	if inv.Role != "reader" {
		t.Errorf("Role = %q, want normalized %q", inv.Role, "reader")
	}
	if inv.Token == "" {
		t.Error("Token should be populated")
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("Status = %q, want pending", inv.Status)
	}
	if until := time.Until(inv.ExpiresAt); until <= 0 || until > models.InvitationTTL {
		t.Errorf("ExpiresAt %v outside the TTL window", inv.ExpiresAt)
	}

	// One pending invitation per address per repository.
	if _, err := store.Create(ctx, CreateInput{
		RepoID:      repoID,
		Email:       "student@example.com",
		Role:        "writer",
		InvitedByID: primitive.NewObjectID(),
	}); err != ErrPendingExists {
		t.Errorf("second Create() error = %v, want ErrPendingExists", err)
	}
}

func TestStore_Accept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, err := store.Create(ctx, CreateInput{
		RepoID:      primitive.NewObjectID(),
		Email:       "student@example.com",
		Role:        "reader",
		InvitedByID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	accepted, err := store.Accept(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if accepted.Status != models.InvitationAccepted {
		t.Errorf("Status = %q, want accepted", accepted.Status)
	}

	// The token is single use.
	if _, err := store.Accept(ctx, inv.Token); err != ErrNotPending {
		t.Errorf("second Accept() error = %v, want ErrNotPending", err)
	}

	if _, err := store.Accept(ctx, "no-such-token"); err != mongo.ErrNoDocuments {
		t.Errorf("Accept() unknown token error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Accept_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, err := store.Create(ctx, CreateInput{
		RepoID:      primitive.NewObjectID(),
		Email:       "late@example.com",
		Role:        "reader",
		InvitedByID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Backdate the expiry.
	if _, err := db.Collection("invitations").UpdateOne(ctx,
		bson.M{"_id": inv.ID},
		bson.M{"$set": bson.M{"expires_at": time.Now().UTC().Add(-time.Hour)}},
	); err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	if _, err := store.Accept(ctx, inv.Token); err != ErrExpired {
		t.Errorf("Accept() past expiry error = %v, want ErrExpired", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	inv, _ := store.Create(ctx, CreateInput{
		RepoID: repoID, Email: "a@example.com", Role: "reader", InvitedByID: primitive.NewObjectID(),
	})
	store.Create(ctx, CreateInput{
		RepoID: repoID, Email: "b@example.com", Role: "writer", InvitedByID: primitive.NewObjectID(),
	})

	invs, err := store.ListByRepo(ctx, repoID)
	if err != nil {
		t.Fatalf("ListByRepo() error = %v", err)
	}
	if len(invs) != 2 {
		t.Errorf("ListByRepo() = %d invitations, want 2", len(invs))
	}

	n, err := store.Delete(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Delete() = %d, want 1", n)
	}

	deleted, err := store.DeleteByRepo(ctx, repoID)
	if err != nil {
		t.Fatalf("DeleteByRepo() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteByRepo() = %d, want 1 remaining invitation", deleted)
	}
}
