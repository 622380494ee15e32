package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"appreview/internal/infrastructure/passwords"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "appreview/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "appreview/internal/infrastructure/persistence/sqlite/uow"
	directoryusecase "appreview/internal/usecase/directory"
)

type fixture struct {
	svc    *Service
	dirSvc *directoryusecase.Service
	tokens *sqliterepo.TokenRepository
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "account.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	users := sqliterepo.NewUserRepository(db)
	uow := sqliteuow.NewUnitOfWork(db)
	hasher := passwords.NewBcryptHasher(bcrypt.MinCost)
	dirSvc := directoryusecase.NewService(sqliterepo.NewDirectoryRepository(db), users, uow, hasher)
	tokens := sqliterepo.NewTokenRepository(db)

	return &fixture{
		svc:    NewService(users, tokens, dirSvc, uow, hasher, time.Hour),
		dirSvc: dirSvc,
		tokens: tokens,
	}
}

func TestRegisterCreatesDirectoryEntry(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	boss, err := f.svc.Register(ctx, RegisterInput{Username: "supervisor1", Email: "s1@test.com", FullName: "John Manager", Password: "supervisor123", IsSupervisor: true})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	worker, err := f.svc.Register(ctx, RegisterInput{Username: " employee1 ", Email: "e1@test.com", Password: "employee123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if worker.Username != "employee1" || worker.PasswordHash == "employee123" {
		t.Fatalf("worker = %+v", worker)
	}

	entry, found, err := f.dirSvc.Entry(ctx, boss.ID)
	if err != nil || !found || !entry.IsSupervisor {
		t.Fatalf("Entry(boss) = %+v, %v, %v", entry, found, err)
	}
	entry, found, err = f.dirSvc.Entry(ctx, worker.ID)
	if err != nil || !found || entry.IsSupervisor || entry.HasSupervisor() {
		t.Fatalf("Entry(worker) = %+v, %v, %v", entry, found, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@test.com", Password: "wonderland1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"taken", RegisterInput{Username: "alice", Email: "b@test.com", Password: "wonderland2"}, ErrUsernameTaken},
		{"blank username", RegisterInput{Username: " ", Email: "b@test.com", Password: "wonderland2"}, ErrInvalidRegistration},
		{"bad username", RegisterInput{Username: "bob smith", Email: "b@test.com", Password: "wonderland2"}, ErrInvalidRegistration},
		{"missing email", RegisterInput{Username: "bob", Password: "wonderland2"}, ErrInvalidRegistration},
		{"short password", RegisterInput{Username: "bob", Email: "b@test.com", Password: "short1"}, ErrInvalidRegistration},
		{"numeric password", RegisterInput{Username: "bob", Email: "b@test.com", Password: "12345678"}, ErrInvalidRegistration},
		{"password equals username", RegisterInput{Username: "bobbobbob", Email: "b@test.com", Password: "BOBBOBBOB"}, ErrInvalidRegistration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Register(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("Register() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoginAuthenticateLogout(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, RegisterInput{Username: "testuser", Email: "user@test.com", Password: "testpass123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := f.svc.Login(ctx, "testuser", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login(wrong password) error = %v", err)
	}
	if _, err := f.svc.Login(ctx, "nobody", "testpass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login(unknown user) error = %v", err)
	}

	session, err := f.svc.Login(ctx, "testuser", "testpass123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token == "" || session.User.ID != user.ID {
		t.Fatalf("session = %+v", session)
	}

	// only the digest is stored
	if _, err := f.tokens.GetToken(ctx, session.Token); err == nil {
		t.Fatalf("plaintext token must not be stored")
	}

	authed, err := f.svc.Authenticate(ctx, session.Token)
	if err != nil || authed.ID != user.ID {
		t.Fatalf("Authenticate() = %+v, %v", authed, err)
	}
	if _, err := f.svc.Authenticate(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Authenticate(garbage) error = %v", err)
	}

	if err := f.svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Authenticate(after logout) error = %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, RegisterInput{Username: "testuser", Email: "user@test.com", Password: "testpass123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return start }
	session, err := f.svc.Login(ctx, "testuser", "testpass123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	f.svc.now = func() time.Time { return start.Add(time.Hour) }
	if _, err := f.svc.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Authenticate(expired) error = %v", err)
	}
	if _, err := f.tokens.GetToken(ctx, hashToken(session.Token)); err == nil {
		t.Fatalf("expired token should be deleted")
	}
}
