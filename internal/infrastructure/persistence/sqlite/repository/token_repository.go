package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"appreview/internal/errs"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

type TokenRepository struct {
	db *gorm.DB
}

var _ ports.TokenRepository = (*TokenRepository)(nil)

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) CreateToken(ctx context.Context, token ports.APIToken) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.APIToken{
		TokenHash: token.TokenHash,
		UserID:    token.UserID,
		CreatedAt: formatTime(token.CreatedAt),
		ExpiresAt: formatTimePtr(token.ExpiresAt),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "create api token")
	}
	return nil
}

func (r *TokenRepository) GetToken(ctx context.Context, tokenHash string) (ports.APIToken, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.APIToken{}, err
	}

	var row model.APIToken
	if err := db.Where("token_hash = ?", tokenHash).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.APIToken{}, fmt.Errorf("%w: api token", ports.ErrNotFound)
		}
		return ports.APIToken{}, errs.Wrap(err, "query api token")
	}

	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return ports.APIToken{}, err
	}
	expiresAt, err := parseTimePtr(row.ExpiresAt)
	if err != nil {
		return ports.APIToken{}, err
	}
	return ports.APIToken{
		TokenHash: row.TokenHash,
		UserID:    row.UserID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (r *TokenRepository) DeleteToken(ctx context.Context, tokenHash string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if err := db.Where("token_hash = ?", tokenHash).Delete(&model.APIToken{}).Error; err != nil {
		return errs.Wrap(err, "delete api token")
	}
	return nil
}
