package ports

import (
	"context"

	"appreview/internal/domain/directory"
)

type DirectoryRepository interface {
	// GetEntry reports found=false when the user has no directory entry.
	GetEntry(ctx context.Context, userID uint64) (directory.Entry, bool, error)
	UpsertEntry(ctx context.Context, entry directory.Entry) error
	ListSupervised(ctx context.Context, supervisorID uint64) ([]directory.User, error)
}

type UserRepository interface {
	// CreateUser returns ErrConflict when the username is taken.
	CreateUser(ctx context.Context, user directory.User) (directory.User, error)
	GetUser(ctx context.Context, userID uint64) (directory.User, error)
	GetUserByUsername(ctx context.Context, username string) (directory.User, error)
}
