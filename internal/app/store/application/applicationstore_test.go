package application

import (
	"testing"

	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	applicant := primitive.NewObjectID()

	app, err := store.Create(ctx, CreateInput{
		Kind:        models.ApplicationKindCreator,
		RepoID:      repoID,
		ApplicantID: applicant,
		Motivation:  "I teach this course",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("Status = %q, want pending", app.Status)
	}

	// One pending application per applicant and repository.
	if _, err := store.Create(ctx, CreateInput{
		Kind:        models.ApplicationKindMember,
		RepoID:      repoID,
		ApplicantID: applicant,
	}); err != ErrPendingExists {
		t.Errorf("second Create() error = %v, want ErrPendingExists", err)
	}

	// A different repository is fine.
	if _, err := store.Create(ctx, CreateInput{
		Kind:        models.ApplicationKindMember,
		RepoID:      primitive.NewObjectID(),
		ApplicantID: applicant,
	}); err != nil {
		t.Errorf("Create() for another repo error = %v", err)
	}
}

func TestStore_Decide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app, err := store.Create(ctx, CreateInput{
		Kind:        models.ApplicationKindCreator,
		RepoID:      primitive.NewObjectID(),
		ApplicantID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	decider := primitive.NewObjectID()
	decided, err := store.Decide(ctx, app.ID, decider, models.ApplicationAccepted)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != models.ApplicationAccepted {
		t.Errorf("Status = %q, want accepted", decided.Status)
	}
	if decided.DecidedByID == nil || *decided.DecidedByID != decider {
		t.Error("DecidedByID should record the reviewer")
	}
	if decided.DecidedAt == nil {
		t.Error("DecidedAt should be set")
	}

	// Second decision loses.
	if _, err := store.Decide(ctx, app.ID, decider, models.ApplicationRejected); err != ErrAlreadyDecided {
		t.Errorf("second Decide() error = %v, want ErrAlreadyDecided", err)
	}

	// Missing application is not the same as an already decided one.
	if _, err := store.Decide(ctx, primitive.NewObjectID(), decider, models.ApplicationAccepted); err != mongo.ErrNoDocuments {
		t.Errorf("Decide() on missing error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Listings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	a, _ := store.Create(ctx, CreateInput{Kind: models.ApplicationKindCreator, RepoID: repoID, ApplicantID: alice})
	store.Create(ctx, CreateInput{Kind: models.ApplicationKindMember, RepoID: repoID, ApplicantID: bob})
	store.Create(ctx, CreateInput{Kind: models.ApplicationKindMember, RepoID: primitive.NewObjectID(), ApplicantID: alice})

	if _, err := store.Decide(ctx, a.ID, primitive.NewObjectID(), models.ApplicationRejected); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	all, err := store.ListByRepo(ctx, repoID, "")
	if err != nil {
		t.Fatalf("ListByRepo() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListByRepo() = %d applications, want 2", len(all))
	}

	pending, err := store.ListByRepo(ctx, repoID, models.ApplicationPending)
	if err != nil {
		t.Fatalf("ListByRepo(pending) error = %v", err)
	}
	if len(pending) != 1 || pending[0].ApplicantID != bob {
		t.Errorf("ListByRepo(pending) should hold only bob's application")
	}

	mine, err := store.ListByApplicant(ctx, alice)
	if err != nil {
		t.Fatalf("ListByApplicant() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByApplicant(alice) = %d, want 2", len(mine))
	}
}

func TestStore_DeleteByRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repoID := primitive.NewObjectID()
	store.Create(ctx, CreateInput{Kind: models.ApplicationKindMember, RepoID: repoID, ApplicantID: primitive.NewObjectID()})
	store.Create(ctx, CreateInput{Kind: models.ApplicationKindMember, RepoID: repoID, ApplicantID: primitive.NewObjectID()})

	deleted, err := store.DeleteByRepo(ctx, repoID)
	if err != nil {
		t.Fatalf("DeleteByRepo() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteByRepo() = %d, want 2", deleted)
	}
}
