package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

type uniqueModel struct {
	ID    int
	Email string `gorm:"uniqueIndex"`
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:unique_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&uniqueModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	if err := conn.Create(&uniqueModel{Email: "a@example.com"}).Error; err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	dupErr := conn.Create(&uniqueModel{Email: "a@example.com"}).Error
	if dupErr == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(dupErr, "") {
		t.Fatalf("expected unique violation, got %v", dupErr)
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error must not match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil must not match")
	}
}

func TestNewFromGormReportsDialect(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if !client.IsSQLite() {
		t.Fatal("expected sqlite dialect")
	}
}

func TestWithTx_ReplaysSerializationFailures(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	attempts := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if err := tx.Create(&testModel{Name: "replayed"}).Error; err != nil {
			return err
		}
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected replay to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}

	var count int64
	if err := db.Model(&testModel{}).Where("name = ?", "replayed").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the first attempt to roll back, got %d rows", count)
	}
}

func TestWithTx_DoesNotReplayOtherErrors(t *testing.T) {
	client := NewFromGorm(newTestDB(t))

	attempts := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return errors.New("out of stock")
	})
	if err == nil || err.Error() != "out of stock" {
		t.Fatalf("expected original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}
