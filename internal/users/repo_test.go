package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Ama@Example.com ",
		PasswordHash: "hash",
		FirstName:    "Ama",
		LastName:     "Mensah",
		Role:         enums.RoleStore,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if user.MetadataRole != enums.RoleStore {
		t.Fatalf("expected metadata role store, got %s", user.MetadataRole)
	}

	found, err := repo.FindByEmail(ctx, "ama@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID || found.FullName() != "Ama Mensah" {
		t.Fatalf("unexpected user %+v", found)
	}

	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryRejectsDuplicateEmail(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	dto := CreateUserDTO{Email: "kofi@example.com", PasswordHash: "hash", FirstName: "Kofi"}
	if _, err := repo.Create(ctx, dto); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := repo.Create(ctx, dto)
	if !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestRepositoryUpdates(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "efua@example.com", PasswordHash: "hash", FirstName: "Efua"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Role != enums.RoleCustomer {
		t.Fatalf("expected default customer role, got %s", user.Role)
	}

	if err := repo.UpdateRole(ctx, user.ID, enums.RoleDelivery); err != nil {
		t.Fatalf("update role: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		t.Fatalf("update last login: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Role != enums.RoleDelivery || reloaded.MetadataRole != enums.RoleCustomer {
		t.Fatalf("unexpected roles %s/%s", reloaded.Role, reloaded.MetadataRole)
	}
	if reloaded.LastLoginAt == nil {
		t.Fatal("expected last login to be set")
	}

	if err := repo.UpdateRole(ctx, uuid.New(), enums.RoleAdmin); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindByEmailIgnoresCaseAndSpace(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "yaw@example.com", PasswordHash: "hash", FirstName: "Yaw"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	found, err := repo.FindByEmail(ctx, "  YAW@Example.COM ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, found.ID)
	}

	if err := repo.UpdatePasswordHash(ctx, user.ID, "rehashed"); err != nil {
		t.Fatalf("update hash: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PasswordHash != "rehashed" {
		t.Fatalf("expected new hash, got %q", reloaded.PasswordHash)
	}
}
