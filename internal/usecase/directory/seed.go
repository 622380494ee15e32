package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"appreview/internal/bootstrap/logging"
	domaindirectory "appreview/internal/domain/directory"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

// SeedFile describes a sample organisation: supervisors first, then the
// employees reporting to them by username.
type SeedFile struct {
	Supervisors []SeedUser `toml:"supervisors"`
	Employees   []SeedUser `toml:"employees"`
}

type SeedUser struct {
	Username   string `toml:"username"`
	Email      string `toml:"email"`
	FullName   string `toml:"full_name"`
	Password   string `toml:"password"`
	Supervisor string `toml:"supervisor"`
}

type SeedResult struct {
	Created []string
	Updated []string
}

func ParseSeedFile(raw []byte) (SeedFile, error) {
	var file SeedFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return SeedFile{}, errs.Wrap(err, "decode seed file")
	}

	supervisors := make(map[string]struct{}, len(file.Supervisors))
	for _, user := range file.Supervisors {
		if strings.TrimSpace(user.Username) == "" {
			return SeedFile{}, errors.New("seed supervisor username is required")
		}
		supervisors[user.Username] = struct{}{}
	}
	for _, user := range file.Employees {
		if strings.TrimSpace(user.Username) == "" {
			return SeedFile{}, errors.New("seed employee username is required")
		}
		if _, ok := supervisors[user.Username]; ok {
			return SeedFile{}, fmt.Errorf("seed user %q is listed as both supervisor and employee", user.Username)
		}
		if _, ok := supervisors[user.Supervisor]; !ok {
			return SeedFile{}, fmt.Errorf("seed employee %q: unknown supervisor %q", user.Username, user.Supervisor)
		}
	}
	return file, nil
}

// Seed creates missing users. Existing supervisors are re-flagged; existing
// employees only receive a supervisor when they have none and keep their own
// supervisor flag. Every assignment passes ValidateAssignment.
func (s *Service) Seed(ctx context.Context, file SeedFile) (SeedResult, error) {
	if err := s.check(ctx); err != nil {
		return SeedResult{}, err
	}
	if s.uow == nil {
		return SeedResult{}, errors.New("directory unit of work is required")
	}
	if s.hasher == nil {
		return SeedResult{}, errors.New("password hasher is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.directory.seed"))

	var result SeedResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		supervisorIDs := make(map[string]uint64, len(file.Supervisors))
		for _, seed := range file.Supervisors {
			user, created, err := s.getOrCreateUser(txCtx, seed)
			if err != nil {
				return err
			}
			entry, _, err := s.dir.GetEntry(txCtx, user.ID)
			if err != nil {
				return err
			}
			entry.UserID = user.ID
			entry.IsSupervisor = true
			if err := s.dir.UpsertEntry(txCtx, entry); err != nil {
				return err
			}
			supervisorIDs[seed.Username] = user.ID
			result.record(seed.Username, created)
		}

		for _, seed := range file.Employees {
			user, created, err := s.getOrCreateUser(txCtx, seed)
			if err != nil {
				return err
			}
			entry, _, err := s.dir.GetEntry(txCtx, user.ID)
			if err != nil {
				return err
			}
			if entry.HasSupervisor() {
				continue
			}
			supervisorID, ok := supervisorIDs[seed.Supervisor]
			if !ok {
				return fmt.Errorf("%w: seed employee %q names unknown supervisor %q", domaindirectory.ErrInvalidSupervisor, seed.Username, seed.Supervisor)
			}
			supervisorEntry, found, err := s.dir.GetEntry(txCtx, supervisorID)
			if err != nil {
				return err
			}
			if err := domaindirectory.ValidateAssignment(user.ID, supervisorID, supervisorEntry, found); err != nil {
				return errs.Wrapf(err, "seed employee %q", seed.Username)
			}
			entry.UserID = user.ID
			entry.SupervisorID = &supervisorID
			if err := s.dir.UpsertEntry(txCtx, entry); err != nil {
				return err
			}
			result.record(seed.Username, created)
		}
		return nil
	}); err != nil {
		return SeedResult{}, errs.Wrap(err, "seed directory")
	}

	logging.Info(logCtx, "directory seeded", slog.Int("created", len(result.Created)), slog.Int("updated", len(result.Updated)))
	return result, nil
}

func (s *Service) getOrCreateUser(ctx context.Context, seed SeedUser) (domaindirectory.User, bool, error) {
	user, err := s.users.GetUserByUsername(ctx, seed.Username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return domaindirectory.User{}, false, err
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return domaindirectory.User{}, false, err
	}
	user, err = s.users.CreateUser(ctx, domaindirectory.User{
		Username:     seed.Username,
		Email:        seed.Email,
		FullName:     seed.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		return domaindirectory.User{}, false, err
	}
	return user, true, nil
}

func (r *SeedResult) record(username string, created bool) {
	if created {
		r.Created = append(r.Created, username)
		return
	}
	r.Updated = append(r.Updated, username)
}
