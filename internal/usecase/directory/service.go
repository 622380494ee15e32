package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"appreview/internal/bootstrap/logging"
	domaindirectory "appreview/internal/domain/directory"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

type Service struct {
	dir    ports.DirectoryRepository
	users  ports.UserRepository
	uow    ports.UnitOfWork
	hasher ports.PasswordHasher
}

// NewService wires directory usecases. hasher is only needed by Seed.
func NewService(dir ports.DirectoryRepository, users ports.UserRepository, uow ports.UnitOfWork, hasher ports.PasswordHasher) *Service {
	return &Service{
		dir:    dir,
		users:  users,
		uow:    uow,
		hasher: hasher,
	}
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.dir == nil {
		return errors.New("directory repository is required")
	}
	if s.users == nil {
		return errors.New("user repository is required")
	}
	return nil
}

// Lookup resolves a username. It returns ports.ErrNotFound for unknown users.
func (s *Service) Lookup(ctx context.Context, username string) (domaindirectory.User, error) {
	if err := s.check(ctx); err != nil {
		return domaindirectory.User{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domaindirectory.User{}, fmt.Errorf("%w: username is required", ports.ErrNotFound)
	}
	return s.users.GetUserByUsername(ctx, username)
}

// Entry returns the user's directory entry; found is false when none exists.
func (s *Service) Entry(ctx context.Context, userID uint64) (domaindirectory.Entry, bool, error) {
	if err := s.check(ctx); err != nil {
		return domaindirectory.Entry{}, false, err
	}
	return s.dir.GetEntry(ctx, userID)
}

// GetSupervisor resolves the user's assigned supervisor. A user without an
// entry or without an assignment simply has no supervisor.
func (s *Service) GetSupervisor(ctx context.Context, userID uint64) (domaindirectory.User, bool, error) {
	if err := s.check(ctx); err != nil {
		return domaindirectory.User{}, false, err
	}

	entry, found, err := s.dir.GetEntry(ctx, userID)
	if err != nil {
		return domaindirectory.User{}, false, err
	}
	if !found || !entry.HasSupervisor() {
		return domaindirectory.User{}, false, nil
	}

	supervisor, err := s.users.GetUser(ctx, *entry.SupervisorID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domaindirectory.User{}, false, nil
		}
		return domaindirectory.User{}, false, err
	}
	return supervisor, true, nil
}

// SupervisedSet lists users reporting to userID; empty unless userID is a supervisor.
func (s *Service) SupervisedSet(ctx context.Context, userID uint64) ([]domaindirectory.User, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	entry, found, err := s.dir.GetEntry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found || !entry.IsSupervisor {
		return []domaindirectory.User{}, nil
	}
	return s.dir.ListSupervised(ctx, userID)
}

func (s *Service) AssignSupervisor(ctx context.Context, userID uint64, supervisorID uint64) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if s.uow == nil {
		return errors.New("directory unit of work is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.directory"),
		slog.Uint64("user_id", userID),
		slog.Uint64("supervisor_id", supervisorID),
	)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.assignTx(txCtx, userID, supervisorID)
	}); err != nil {
		logging.Warn(logCtx, "assign supervisor refused", slog.Any("err", errs.Loggable(err)))
		return err
	}

	logging.Info(logCtx, "supervisor assigned")
	return nil
}

func (s *Service) assignTx(ctx context.Context, userID uint64, supervisorID uint64) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return err
	}

	supervisor, found, err := s.dir.GetEntry(ctx, supervisorID)
	if err != nil {
		return err
	}
	if err := domaindirectory.ValidateAssignment(userID, supervisorID, supervisor, found); err != nil {
		return err
	}

	entry, _, err := s.dir.GetEntry(ctx, userID)
	if err != nil {
		return err
	}
	entry.UserID = userID
	entry.SupervisorID = &supervisorID
	return s.dir.UpsertEntry(ctx, entry)
}

// SetSupervisorFlag marks or unmarks a user as supervisor, keeping any assignment.
func (s *Service) SetSupervisorFlag(ctx context.Context, userID uint64, isSupervisor bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if s.uow == nil {
		return errors.New("directory unit of work is required")
	}

	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetUser(txCtx, userID); err != nil {
			return err
		}
		entry, _, err := s.dir.GetEntry(txCtx, userID)
		if err != nil {
			return err
		}
		entry.UserID = userID
		entry.IsSupervisor = isSupervisor
		return s.dir.UpsertEntry(txCtx, entry)
	})
}
