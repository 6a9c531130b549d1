package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/dalemusser/fundio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	u, err := store.Create(ctx, models.User{
		Name:         "  Ana Silva ",
		Email:        " Ana@Example.COM ",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if u.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if u.Name != "Ana Silva" {
		t.Errorf("Name: got %q", u.Name)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("Email: got %q, want lowercased", u.Email)
	}
	if u.NameCI == "" || u.EmailCI == "" {
		t.Error("expected folded fields to be set")
	}
	if u.AuthProvider != models.AuthProviderLocal {
		t.Errorf("AuthProvider: got %q", u.AuthProvider)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if _, err := store.Create(ctx, models.User{Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Other", Email: "ANA@example.com"})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByEmail(ctx, "ANA@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if found.ID != created.ID {
		t.Error("expected the created user")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.UpdateName(ctx, u.ID, "Ana Costa"); err != nil {
		t.Fatalf("UpdateName failed: %v", err)
	}

	found, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.Name != "Ana Costa" {
		t.Errorf("Name: got %q", found.Name)
	}
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.UpdatePasswordHash(ctx, primitive.NewObjectID(), "hash"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := userstore.NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Errorf("NormalizeEmail: got %q", got)
	}
}
