package repository

import (
	"context"
	"testing"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustCreate(t *testing.T, ctx context.Context, store *Store, name, privacy string, ownerID primitive.ObjectID) *models.Repository {
	t.Helper()
	repo, err := store.Create(ctx, CreateInput{
		Name:    name,
		Privacy: privacy,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return repo
}

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	repo, err := store.Create(ctx, CreateInput{Name: "Algorithms", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if repo.Privacy != models.PrivacyPrivate {
		t.Errorf("Privacy = %q, want default %q", repo.Privacy, models.PrivacyPrivate)
	}
	if repo.TypeRepo != models.RepoTypeNormal {
		t.Errorf("TypeRepo = %q, want default %q", repo.TypeRepo, models.RepoTypeNormal)
	}
	if len(repo.Participants) != 1 {
		t.Fatalf("Participants = %d entries, want 1", len(repo.Participants))
	}
	p := repo.Participants[0]
	if p.UserID != owner || p.Role != models.ParticipantAdmin || p.Status != models.ParticipantActive {
		t.Errorf("owner participant = %+v, want active admin for %v", p, owner)
	}
}

func TestStore_Create_InvalidPrivacy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, CreateInput{
		Name:    "Bad",
		Privacy: "secret",
		OwnerID: primitive.NewObjectID(),
	}); err == nil {
		t.Fatal("Create() with invalid privacy should fail")
	}
}

func TestStore_Participants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	repo := mustCreate(t, ctx, store, "Shared", models.PrivacyPrivate, owner)

	if err := store.AddParticipant(ctx, repo.ID, member, models.ParticipantWriter); err != nil {
		t.Fatalf("AddParticipant() error = %v", err)
	}
	if err := store.AddParticipant(ctx, repo.ID, member, models.ParticipantReader); err != ErrAlreadyParticipant {
		t.Errorf("AddParticipant() twice error = %v, want ErrAlreadyParticipant", err)
	}

	got, err := store.GetByID(ctx, repo.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	p, ok := got.ActiveParticipant(member)
	if !ok || p.Role != models.ParticipantWriter {
		t.Fatalf("ActiveParticipant() = %+v, %v; want active writer", p, ok)
	}

	if err := store.SetParticipantStatus(ctx, repo.ID, member, models.ParticipantInactive); err != nil {
		t.Fatalf("SetParticipantStatus() error = %v", err)
	}
	got, _ = store.GetByID(ctx, repo.ID)
	if _, ok := got.ActiveParticipant(member); ok {
		t.Error("participant should be inactive after status change")
	}

	if err := store.RemoveParticipant(ctx, repo.ID, member); err != nil {
		t.Fatalf("RemoveParticipant() error = %v", err)
	}
	got, _ = store.GetByID(ctx, repo.ID)
	if len(got.Participants) != 1 {
		t.Errorf("Participants = %d entries after removal, want 1 (the owner)", len(got.Participants))
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repo := mustCreate(t, ctx, store, "Old Name", models.PrivacyPrivate, primitive.NewObjectID())

	name := "New Name"
	privacy := models.PrivacyPublic
	if err := store.Update(ctx, repo.ID, UpdateInput{Name: &name, Privacy: &privacy}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.GetByID(ctx, repo.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "New Name" || got.Privacy != models.PrivacyPublic {
		t.Errorf("after Update: name %q privacy %q", got.Name, got.Privacy)
	}
}

func TestStore_Listings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	pub := mustCreate(t, ctx, store, "Algebra", models.PrivacyPublic, alice)
	mustCreate(t, ctx, store, "Private Notes", models.PrivacyPrivate, alice)
	bobRepo := mustCreate(t, ctx, store, "Biology", models.PrivacyPublic, bob)

	// Bob joins Alice's public repository.
	if err := store.AddParticipant(ctx, pub.ID, bob, models.ParticipantReader); err != nil {
		t.Fatalf("AddParticipant() error = %v", err)
	}

	repos, total, err := store.ListPublic(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if total != 2 || len(repos) != 2 {
		t.Errorf("ListPublic() = %d repos, total %d, want 2/2", len(repos), total)
	}

	repos, total, err = store.ListPublic(ctx, ListOptions{Search: "alg"})
	if err != nil {
		t.Fatalf("ListPublic(search) error = %v", err)
	}
	if total != 1 || repos[0].ID != pub.ID {
		t.Errorf("ListPublic(search alg) returned wrong result")
	}

	owned, err := store.ListByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("ListByOwner(alice) = %d repos, want 2", len(owned))
	}

	joined, err := store.ListByParticipant(ctx, bob)
	if err != nil {
		t.Fatalf("ListByParticipant() error = %v", err)
	}
	if len(joined) != 2 {
		t.Fatalf("ListByParticipant(bob) = %d repos, want 2 (own plus joined)", len(joined))
	}

	// Deactivated participants drop out of the joined listing.
	if err := store.SetParticipantStatus(ctx, pub.ID, bob, models.ParticipantInactive); err != nil {
		t.Fatalf("SetParticipantStatus() error = %v", err)
	}
	joined, _ = store.ListByParticipant(ctx, bob)
	if len(joined) != 1 || joined[0].ID != bobRepo.ID {
		t.Errorf("ListByParticipant(bob) after deactivation = %d repos, want just their own", len(joined))
	}
}
