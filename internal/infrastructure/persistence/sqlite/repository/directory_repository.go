package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appreview/internal/domain/directory"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

type DirectoryRepository struct {
	db *gorm.DB
}

var _ ports.DirectoryRepository = (*DirectoryRepository)(nil)

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetEntry(ctx context.Context, userID uint64) (directory.Entry, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return directory.Entry{}, false, err
	}

	var row model.DirectoryEntry
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return directory.Entry{}, false, nil
		}
		return directory.Entry{}, false, errs.Wrap(err, "query directory entry")
	}
	return directory.Entry{
		UserID:       row.UserID,
		IsSupervisor: row.IsSupervisor,
		SupervisorID: row.SupervisorID,
	}, true, nil
}

func (r *DirectoryRepository) UpsertEntry(ctx context.Context, entry directory.Entry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.DirectoryEntry{
		UserID:       entry.UserID,
		IsSupervisor: entry.IsSupervisor,
		SupervisorID: entry.SupervisorID,
		UpdatedAt:    formatTime(time.Now()),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_supervisor": row.IsSupervisor,
			"supervisor_id": row.SupervisorID,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert directory entry")
	}
	return nil
}

func (r *DirectoryRepository) ListSupervised(ctx context.Context, supervisorID uint64) ([]directory.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.User
	if err := db.Model(&model.User{}).
		Joins("JOIN directory_entries ON directory_entries.user_id = users.user_id").
		Where("directory_entries.supervisor_id = ?", supervisorID).
		Order("users.user_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query supervised users")
	}
	return mapUsers(rows)
}

type UserRepository struct {
	db *gorm.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user directory.User) (directory.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return directory.User{}, err
	}

	username := strings.TrimSpace(user.Username)
	var count int64
	if err := db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return directory.User{}, errs.Wrap(err, "query username")
	}
	if count > 0 {
		return directory.User{}, fmt.Errorf("%w: username %q", ports.ErrConflict, username)
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row := model.User{
		Username:     username,
		Email:        strings.TrimSpace(user.Email),
		FullName:     strings.TrimSpace(user.FullName),
		PasswordHash: user.PasswordHash,
		CreatedAt:    formatTime(createdAt),
	}
	if err := db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return directory.User{}, fmt.Errorf("%w: username %q", ports.ErrConflict, username)
		}
		return directory.User{}, errs.Wrap(err, "create user")
	}
	return mapUser(row)
}

func (r *UserRepository) GetUser(ctx context.Context, userID uint64) (directory.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return directory.User{}, err
	}

	var row model.User
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return directory.User{}, fmt.Errorf("%w: user %d", ports.ErrNotFound, userID)
		}
		return directory.User{}, errs.Wrap(err, "query user")
	}
	return mapUser(row)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (directory.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return directory.User{}, err
	}

	var row model.User
	if err := db.Where("username = ?", strings.TrimSpace(username)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return directory.User{}, fmt.Errorf("%w: user %q", ports.ErrNotFound, username)
		}
		return directory.User{}, errs.Wrap(err, "query user by username")
	}
	return mapUser(row)
}

func mapUsers(rows []model.User) ([]directory.User, error) {
	items := make([]directory.User, 0, len(rows))
	for _, row := range rows {
		item, err := mapUser(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func mapUser(row model.User) (directory.User, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return directory.User{}, err
	}
	return directory.User{
		ID:           row.UserID,
		Username:     row.Username,
		Email:        row.Email,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}
