package ports

import (
	"context"
	"time"
)

// APIToken is a bearer credential. Only the SHA-256 hex of the plaintext is stored.
type APIToken struct {
	TokenHash string
	UserID    uint64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

type TokenRepository interface {
	CreateToken(ctx context.Context, token APIToken) error
	GetToken(ctx context.Context, tokenHash string) (APIToken, error)
	DeleteToken(ctx context.Context, tokenHash string) error
}
