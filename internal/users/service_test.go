package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func newProfileService(t *testing.T) (Service, authz.Principal) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	user, err := repo.Create(context.Background(), CreateUserDTO{Email: "ama@example.com", PasswordHash: "hash", FirstName: "Ama"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	svc.(*service).now = func() time.Time { return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC) }
	return svc, authz.Principal{UserID: user.ID, Role: enums.RoleCustomer}
}

func TestUpdateProfileStoresNormalizedFields(t *testing.T) {
	svc, caller := newProfileService(t)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, caller, UpdateProfileInput{
		FirstName:   "  Ama ",
		LastName:    "Owusu",
		Phone:       "024-765-4321",
		DateOfBirth: strPtr("2000-02-29"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Ama Owusu" {
		t.Fatalf("unexpected name %q", updated.FullName)
	}
	if updated.Phone == nil || *updated.Phone != "0247654321" {
		t.Fatalf("expected digits-only phone, got %v", updated.Phone)
	}
	if updated.DateOfBirth == nil || *updated.DateOfBirth != "2000-02-29" {
		t.Fatalf("unexpected date of birth %v", updated.DateOfBirth)
	}

	cleared, err := svc.UpdateProfile(ctx, caller, UpdateProfileInput{FirstName: "Ama", LastName: "Owusu", Phone: "0247654321"})
	if err != nil {
		t.Fatalf("clear date of birth: %v", err)
	}
	if cleared.DateOfBirth != nil {
		t.Fatalf("expected date of birth cleared, got %v", *cleared.DateOfBirth)
	}

	read, err := svc.Profile(ctx, caller)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if read.LastName != "Owusu" || read.Email != "ama@example.com" {
		t.Fatalf("unexpected profile %+v", read)
	}
}

func TestUpdateProfileRejectsInvalidInput(t *testing.T) {
	svc, caller := newProfileService(t)
	ctx := context.Background()
	valid := UpdateProfileInput{FirstName: "Ama", LastName: "Owusu", Phone: "0247654321"}

	cases := map[string]func(in *UpdateProfileInput){
		"blank last name":  func(in *UpdateProfileInput) { in.LastName = "  " },
		"short phone":      func(in *UpdateProfileInput) { in.Phone = "024765" },
		"long phone":       func(in *UpdateProfileInput) { in.Phone = "+233 24 765 4321" },
		"unparseable date": func(in *UpdateProfileInput) { in.DateOfBirth = strPtr("29/02/2000") },
		"future birth":     func(in *UpdateProfileInput) { in.DateOfBirth = strPtr("2026-10-20") },
		"older than 120":   func(in *UpdateProfileInput) { in.DateOfBirth = strPtr("1905-10-19") },
	}
	for name, mutate := range cases {
		in := valid
		mutate(&in)
		_, err := svc.UpdateProfile(ctx, caller, in)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	_, err := svc.UpdateProfile(ctx, authz.Anonymous, valid)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous caller, got %v", err)
	}
	_, err = svc.UpdateProfile(ctx, authz.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}, valid)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for a deleted user, got %v", err)
	}
}

func TestAgeOnCountsWholeYears(t *testing.T) {
	dob := time.Date(2008, time.October, 20, 0, 0, 0, 0, time.UTC)
	if got := AgeOn(dob, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)); got != 17 {
		t.Fatalf("day before birthday: expected 17 got %d", got)
	}
	if got := AgeOn(dob, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)); got != 18 {
		t.Fatalf("on birthday: expected 18 got %d", got)
	}

	now := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	if _, err := ParseDateOfBirth("1906-10-19", now); err != nil {
		t.Fatalf("exactly 120 should be accepted: %v", err)
	}
	if _, err := ParseDateOfBirth("2026-10-19", now); err != nil {
		t.Fatalf("born today should be accepted: %v", err)
	}
}
