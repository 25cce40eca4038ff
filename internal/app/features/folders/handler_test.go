package folders

import (
	"net/http"
	"testing"

	filestore "github.com/dalemusser/eduvault/internal/app/store/file"
	folderstore "github.com/dalemusser/eduvault/internal/app/store/folder"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/dalemusser/eduvault/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type handlerDeps struct {
	folders *folderstore.Store
	files   *filestore.Store
	repos   *repositorystore.Store
}

func setupHandler(t *testing.T) (http.Handler, handlerDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := handlerDeps{
		folders: folderstore.New(db),
		files:   filestore.New(db),
		repos:   repositorystore.New(db),
	}
	h := NewHandler(deps.folders, deps.files, deps.repos, nil, zap.NewNop())
	r := chi.NewRouter()
	Routes(r, h)
	return r, deps
}

func mustRepo(t *testing.T, repos *repositorystore.Store, ownerID primitive.ObjectID, privacy string) *models.Repository {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repo, err := repos.Create(ctx, repositorystore.CreateInput{
		Name:    "Algorithms Course",
		Privacy: privacy,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	return repo
}

func createFolder(t *testing.T, router http.Handler, user testutil.TestUser, repoID primitive.ObjectID, body map[string]any) *models.Folder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repoID.Hex()+"/folders", body)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, user))
	rec.AssertStatus(t, http.StatusCreated)

	var f models.Folder
	rec.DecodeJSON(t, &f)
	return &f
}

func TestHandler_Create(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	f := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})

	if f.Path != "/Lectures" {
		t.Errorf("Path = %q, want %q", f.Path, "/Lectures")
	}
	if f.Level != 0 {
		t.Errorf("Level = %d, want 0 for a root folder", f.Level)
	}
	if f.Color != models.DefaultFolderColor {
		t.Errorf("Color = %q, want the default %q", f.Color, models.DefaultFolderColor)
	}

	child := createFolder(t, router, owner, repo.ID, map[string]any{
		"name":      "Week 1",
		"parent_id": f.ID.Hex(),
		"color":     "#0044AA",
	})
	if child.Path != "/Lectures/Week 1" {
		t.Errorf("child Path = %q, want %q", child.Path, "/Lectures/Week 1")
	}
	if child.Level != 1 {
		t.Errorf("child Level = %d, want 1", child.Level)
	}
}

func TestHandler_Create_DuplicateName(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repo.ID.Hex()+"/folders",
		map[string]any{"name": "Lectures"})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandler_Create_MissingParent(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	// A parent that does not exist at all.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repo.ID.Hex()+"/folders",
		map[string]any{"name": "Orphan", "parent_id": primitive.NewObjectID().Hex()})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusNotFound)

	// A parent that lives in a different repository.
	other := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)
	foreign := createFolder(t, router, owner, other.ID, map[string]any{"name": "Foreign"})

	req = testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repo.ID.Hex()+"/folders",
		map[string]any{"name": "Local", "parent_id": foreign.ID.Hex()})
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusBadRequest)

	// Neither attempt may have created anything.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	roots, err := deps.folders.ListChildren(ctx, repo.ID, nil)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(roots) != 0 {
		t.Errorf("len(roots) = %d, want 0", len(roots))
	}
}

func TestHandler_Create_RejectsUnusableNames(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	// Names that sanitize down to nothing, and names that would break
	// the path hierarchy, are both rejected.
	for _, name := range []string{"<b></b>", "   ", "a/b"} {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repo.ID.Hex()+"/folders",
			map[string]any{"name": name})
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(req, owner))
		rec.AssertStatus(t, http.StatusBadRequest)
	}

	// The same rules apply to a rename.
	f := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	req := testutil.NewJSONRequest(t, http.MethodPut, "/folders/"+f.ID.Hex(),
		map[string]any{"name": "a/b"})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandler_Create_RequiresWriteAccess(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPublic)

	// Readable because the repository is public, but not writable.
	outsider := testutil.NewTestUser("visitor")
	req := testutil.NewJSONRequest(t, http.MethodPost, "/repositories/"+repo.ID.Hex()+"/folders",
		map[string]any{"name": "Lectures"})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, outsider))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandler_Contents_HidesSensitiveFiles(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPublic)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})

	for _, sensitive := range []bool{false, true} {
		if _, err := deps.files.Create(ctx, filestore.CreateInput{
			Filename:     "notes.pdf",
			OriginalName: "notes.pdf",
			ContentType:  "application/pdf",
			Size:         128,
			Sensitive:    sensitive,
			RepositoryID: repo.ID,
			UploadedByID: owner.ID,
			StoragePath:  "repositories/test/notes.pdf",
		}); err != nil {
			t.Fatalf("create file: %v", err)
		}
	}

	list := func(user testutil.TestUser) contentsResponse {
		req := testutil.NewRequest(http.MethodGet, "/folders/contents?repositoryId="+repo.ID.Hex())
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(req, user))
		rec.AssertStatus(t, http.StatusOK)

		var body contentsResponse
		rec.DecodeJSON(t, &body)
		return body
	}

	got := list(owner)
	if len(got.Folders) != 1 || len(got.Files) != 2 {
		t.Errorf("owner sees %d folders and %d files, want 1 and 2", len(got.Folders), len(got.Files))
	}

	got = list(testutil.NewTestUser("visitor"))
	if len(got.Files) != 1 {
		t.Fatalf("non-member sees %d files, want 1", len(got.Files))
	}
	if got.Files[0].Sensitive {
		t.Error("the sensitive file should be hidden from non-members")
	}
}

func TestHandler_Contents_CurrentFolder(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	f := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})

	req := testutil.NewRequest(http.MethodGet,
		"/folders/contents?repositoryId="+repo.ID.Hex()+"&folderId="+f.ID.Hex())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusOK)

	var body contentsResponse
	rec.DecodeJSON(t, &body)
	if body.CurrentFolder == nil || body.CurrentFolder.ID != f.ID {
		t.Errorf("CurrentFolder = %+v, want the listed folder", body.CurrentFolder)
	}
}

func TestHandler_Path(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	top := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	mid := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Week 1", "parent_id": top.ID.Hex()})
	leaf := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Slides", "parent_id": mid.ID.Hex()})

	req := testutil.NewRequest(http.MethodGet, "/folders/"+leaf.ID.Hex()+"/path")
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusOK)

	var body pathResponse
	rec.DecodeJSON(t, &body)
	if len(body.Path) != 3 {
		t.Fatalf("Path = %d entries, want 3", len(body.Path))
	}
	want := []string{"Lectures", "Week 1", "Slides"}
	for i, entry := range body.Path {
		if entry.Name != want[i] {
			t.Errorf("Path[%d].Name = %q, want %q", i, entry.Name, want[i])
		}
		if entry.Level != i {
			t.Errorf("Path[%d].Level = %d, want %d", i, entry.Level, i)
		}
	}
}

func TestHandler_Path_Root(t *testing.T) {
	router, _ := setupHandler(t)
	user := testutil.NewTestUser("adriana")

	// The repository root is addressed as the literal ID "root" and has
	// no ancestry.
	req := testutil.NewRequest(http.MethodGet, "/folders/root/path")
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, user))
	rec.AssertStatus(t, http.StatusOK)

	var body pathResponse
	rec.DecodeJSON(t, &body)
	if len(body.Path) != 0 {
		t.Errorf("Path = %d entries, want 0", len(body.Path))
	}
}

func TestHandler_Move(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	top := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	child := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Week 1", "parent_id": top.ID.Hex()})

	// Moving a folder into its own subtree is rejected.
	req := testutil.NewJSONRequest(t, http.MethodPatch, "/folders/"+top.ID.Hex()+"/move",
		map[string]any{"parent_id": child.ID.Hex()})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusBadRequest)

	// Moving the child to the root succeeds and rewrites its path.
	req = testutil.NewJSONRequest(t, http.MethodPatch, "/folders/"+child.ID.Hex()+"/move",
		map[string]any{})
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusOK)

	var moved models.Folder
	rec.DecodeJSON(t, &moved)
	if moved.Path != "/Week 1" {
		t.Errorf("moved Path = %q, want %q", moved.Path, "/Week 1")
	}
	if moved.Level != 0 {
		t.Errorf("moved Level = %d, want 0", moved.Level)
	}
}

func TestHandler_Move_RootAlias(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	top := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	child := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Week 1", "parent_id": top.ID.Hex()})

	// "root" as the target parent is equivalent to omitting it.
	req := testutil.NewJSONRequest(t, http.MethodPatch, "/folders/"+child.ID.Hex()+"/move",
		map[string]any{"parent_id": "root"})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusOK)

	var moved models.Folder
	rec.DecodeJSON(t, &moved)
	if moved.ParentID != nil {
		t.Error("ParentID should be nil after moving to root")
	}
	if moved.Path != "/Week 1" || moved.Level != 0 {
		t.Errorf("Path/Level = %q/%d, want /Week 1/0", moved.Path, moved.Level)
	}
}

func TestHandler_Delete_Idempotent(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)

	top := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	createFolder(t, router, owner, repo.ID, map[string]any{"name": "Week 1", "parent_id": top.ID.Hex()})

	del := func() deleteResponse {
		req := testutil.NewRequest(http.MethodDelete, "/folders/"+top.ID.Hex())
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(req, owner))
		rec.AssertStatus(t, http.StatusOK)

		var body deleteResponse
		rec.DecodeJSON(t, &body)
		return body
	}

	first := del()
	if first.DeletedFolders != 2 {
		t.Errorf("DeletedFolders = %d, want 2", first.DeletedFolders)
	}

	// Repeating the request converges on an empty result.
	second := del()
	if second.DeletedFolders != 0 || second.DeletedFiles != 0 {
		t.Errorf("repeat delete = %+v, want zeroes", second)
	}
}

func TestHandler_Delete_RemovesSubtreeFiles(t *testing.T) {
	router, deps := setupHandler(t)
	owner := testutil.NewTestUser("adriana")
	repo := mustRepo(t, deps.repos, owner.ID, models.PrivacyPrivate)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	top := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Lectures"})
	child := createFolder(t, router, owner, repo.ID, map[string]any{"name": "Week 1", "parent_id": top.ID.Hex()})

	// One file per folder. No blob behind the records, so no media store
	// is needed.
	for _, folderID := range []primitive.ObjectID{top.ID, child.ID} {
		fid := folderID
		if _, err := deps.files.Create(ctx, filestore.CreateInput{
			Filename:     "notes.pdf",
			OriginalName: "notes.pdf",
			ContentType:  "application/pdf",
			Size:         128,
			RepositoryID: repo.ID,
			FolderID:     &fid,
			UploadedByID: owner.ID,
		}); err != nil {
			t.Fatalf("create file: %v", err)
		}
	}

	req := testutil.NewRequest(http.MethodDelete, "/folders/"+top.ID.Hex())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusOK)

	var body deleteResponse
	rec.DecodeJSON(t, &body)
	if body.DeletedFolders != 2 || body.DeletedFiles != 2 {
		t.Errorf("delete = %+v, want 2 folders and 2 files", body)
	}

	left, err := deps.files.ListByFolders(ctx, []primitive.ObjectID{top.ID, child.ID})
	if err != nil {
		t.Fatalf("ListByFolders() error = %v", err)
	}
	if len(left) != 0 {
		t.Errorf("%d file records left behind, want 0", len(left))
	}
}
