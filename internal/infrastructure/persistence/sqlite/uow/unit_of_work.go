package uow

import (
	"context"

	"gorm.io/gorm"

	"appreview/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm. A WithTx call made inside
// another joins it through a savepoint, so usecases can compose.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	base := u.db
	if outer, ok := ports.TxFromContext(ctx).(*gorm.DB); ok && outer != nil {
		base = outer
	}
	return base.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
