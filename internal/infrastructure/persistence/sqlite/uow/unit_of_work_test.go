package uow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "uow.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.User{}).Count(&n).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func insertUser(ctx context.Context, username string) error {
	tx := ports.TxFromContext(ctx).(*gorm.DB)
	return tx.Create(&model.User{Username: username, PasswordHash: "x", CreatedAt: "2026-01-01T00:00:00.000000000Z"}).Error
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := setupDB(t)
	u := NewUnitOfWork(db)
	boom := errors.New("boom")

	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		if err := insertUser(ctx, "alice"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if n := countUsers(t, db); n != 0 {
		t.Fatalf("users = %d, want 0", n)
	}
}

func TestNestedWithTxJoinsOuter(t *testing.T) {
	db := setupDB(t)
	u := NewUnitOfWork(db)
	boom := errors.New("boom")

	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		if err := insertUser(ctx, "alice"); err != nil {
			return err
		}
		if err := u.WithTx(ctx, func(inner context.Context) error {
			return insertUser(inner, "bob")
		}); err != nil {
			return err
		}
		// a failed inner transaction only rolls back its own savepoint
		_ = u.WithTx(ctx, func(inner context.Context) error {
			if err := insertUser(inner, "carol"); err != nil {
				return err
			}
			return boom
		})
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if n := countUsers(t, db); n != 2 {
		t.Fatalf("users = %d, want 2", n)
	}
}
