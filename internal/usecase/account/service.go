// Package account handles registration and bearer-token sessions.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/directory"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// Flagger toggles the supervisor flag of a directory entry.
type Flagger interface {
	SetSupervisorFlag(ctx context.Context, userID uint64, isSupervisor bool) error
}

type Service struct {
	users    ports.UserRepository
	tokens   ports.TokenRepository
	flagger  Flagger
	uow      ports.UnitOfWork
	hasher   ports.PasswordHasher
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	flagger Flagger,
	uow ports.UnitOfWork,
	hasher ports.PasswordHasher,
	tokenTTL time.Duration,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		flagger:  flagger,
		uow:      uow,
		hasher:   hasher,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Username     string
	Email        string
	FullName     string
	Password     string
	IsSupervisor bool
}

type Session struct {
	// Token is the plaintext bearer credential; it is never stored.
	Token     string
	User      directory.User
	ExpiresAt time.Time
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.users == nil {
		return errors.New("user repository is required")
	}
	return nil
}

// Register creates a user and its directory entry. Every account gets an
// entry so the supervisor flag is explicit from the start.
func (s *Service) Register(ctx context.Context, input RegisterInput) (directory.User, error) {
	if err := s.check(ctx); err != nil {
		return directory.User{}, err
	}
	if s.uow == nil || s.hasher == nil || s.flagger == nil {
		return directory.User{}, errors.New("account service is not fully wired")
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateRegistration(input); err != nil {
		return directory.User{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.account.register"),
		slog.String("username", input.Username),
	)

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return directory.User{}, errs.Wrap(err, "hash password")
	}

	var user directory.User
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		created, err := s.users.CreateUser(txCtx, directory.User{
			Username:     input.Username,
			Email:        input.Email,
			FullName:     strings.TrimSpace(input.FullName),
			PasswordHash: hash,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, ports.ErrConflict) {
				return fmt.Errorf("%w: %s", ErrUsernameTaken, input.Username)
			}
			return err
		}
		user = created
		return s.flagger.SetSupervisorFlag(txCtx, created.ID, input.IsSupervisor)
	}); err != nil {
		logging.Warn(logCtx, "registration refused", slog.Any("err", errs.Loggable(err)))
		return directory.User{}, err
	}

	logging.Info(logCtx, "account registered", slog.Uint64("user_id", user.ID), slog.Bool("is_supervisor", input.IsSupervisor))
	return user, nil
}

func validateRegistration(input RegisterInput) error {
	if !usernamePattern.MatchString(input.Username) {
		return fmt.Errorf("%w: username must be 1-150 letters, digits or @.+-_", ErrInvalidRegistration)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: email is required", ErrInvalidRegistration)
	}
	if len([]rune(input.Password)) < 8 {
		return fmt.Errorf("%w: password must contain at least 8 characters", ErrInvalidRegistration)
	}
	if strings.IndexFunc(input.Password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return fmt.Errorf("%w: password cannot be entirely numeric", ErrInvalidRegistration)
	}
	if strings.EqualFold(input.Password, input.Username) {
		return fmt.Errorf("%w: password is too similar to the username", ErrInvalidRegistration)
	}
	return nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username string, password string) (Session, error) {
	if err := s.check(ctx); err != nil {
		return Session{}, err
	}
	if s.tokens == nil || s.hasher == nil {
		return Session{}, errors.New("account service is not fully wired")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.account.login"),
		slog.String("username", username),
	)

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			logging.Warn(logCtx, "login refused: unknown user")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, ports.ErrPasswordMismatch) {
			logging.Warn(logCtx, "login refused: password mismatch")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errs.Wrap(err, "compare password")
	}

	plaintext := uuid.NewString()
	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	if err := s.tokens.CreateToken(ctx, ports.APIToken{
		TokenHash: hashToken(plaintext),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}); err != nil {
		return Session{}, errs.Wrap(err, "store token")
	}

	logging.Info(logCtx, "login succeeded", slog.Uint64("user_id", user.ID))
	return Session{Token: plaintext, User: user, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token. Expired tokens are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (directory.User, error) {
	if err := s.check(ctx); err != nil {
		return directory.User{}, err
	}
	if s.tokens == nil {
		return directory.User{}, errors.New("token repository is required")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return directory.User{}, ErrInvalidToken
	}

	key := hashToken(token)
	stored, err := s.tokens.GetToken(ctx, key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return directory.User{}, ErrInvalidToken
		}
		return directory.User{}, err
	}
	if stored.ExpiresAt != nil && !s.now().Before(*stored.ExpiresAt) {
		if err := s.tokens.DeleteToken(ctx, key); err != nil {
			logging.Warn(ctx, "delete expired token failed", slog.Any("err", errs.Loggable(err)))
		}
		return directory.User{}, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return directory.User{}, ErrInvalidToken
		}
		return directory.User{}, err
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if s.tokens == nil {
		return errors.New("token repository is required")
	}
	return s.tokens.DeleteToken(ctx, hashToken(strings.TrimSpace(token)))
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
