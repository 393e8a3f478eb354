package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		want       Violation
		constraint string
	}{
		{"nil", nil, ViolationNone, ""},
		{"pgx unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, ViolationUnique, "users_email_key"},
		{"wrapped pgx fk", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "orders_store_id_fkey"}), ViolationForeignKey, "orders_store_id_fkey"},
		{"pq check", &pq.Error{Code: "23514", Constraint: "products_stock_check"}, ViolationCheck, "products_stock_check"},
		{"pgx serialization", &pgconn.PgError{Code: "40001"}, ViolationSerialization, ""},
		{"pgx other", &pgconn.PgError{Code: "42P01"}, ViolationNone, ""},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), ViolationUnique, ""},
		{"sqlite not null", errors.New("NOT NULL constraint failed: stores.name"), ViolationNotNull, ""},
		{"sqlite locked", errors.New("database is locked"), ViolationSerialization, ""},
		{"plain", errors.New("connection refused"), ViolationNone, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, constraint := Classify(tc.err)
			if got != tc.want || constraint != tc.constraint {
				t.Fatalf("expected (%q, %q), got (%q, %q)", tc.want, tc.constraint, got, constraint)
			}
		})
	}
}

func TestIsUniqueViolationMatchesConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	if !IsUniqueViolation(err, "users_email_key") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(err, "users_phone_key") {
		t.Fatal("expected other constraint to be rejected")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), "users.email") {
		t.Fatal("expected sqlite message to match by substring")
	}
}

func TestAsAppError(t *testing.T) {
	cases := []struct {
		err  error
		want pkgerrors.Code
	}{
		{&pgconn.PgError{Code: "23505"}, pkgerrors.CodeConflict},
		{&pgconn.PgError{Code: "23503"}, pkgerrors.CodeValidation},
		{&pgconn.PgError{Code: "40001"}, pkgerrors.CodeDependency},
		{errors.New("boom"), pkgerrors.CodeDependency},
		{pkgerrors.New(pkgerrors.CodeNotFound, "store not found"), pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		if got := AsAppError(tc.err, "write failed"); !pkgerrors.IsCode(got, tc.want) {
			t.Fatalf("expected %s for %v, got %v", tc.want, tc.err, got)
		}
	}
	if AsAppError(nil, "write failed") != nil {
		t.Fatal("nil stays nil")
	}
}
