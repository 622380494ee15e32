package directory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	domaindirectory "appreview/internal/domain/directory"
	"appreview/internal/infrastructure/passwords"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "appreview/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "appreview/internal/infrastructure/persistence/sqlite/uow"
	"appreview/internal/ports"
)

type fixture struct {
	svc   *Service
	users *sqliterepo.UserRepository
	dir   *sqliterepo.DirectoryRepository
}

func setupService(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "directory.sqlite")), &gorm.Config{})
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
	dir := sqliterepo.NewDirectoryRepository(db)
	svc := NewService(dir, users, sqliteuow.NewUnitOfWork(db), passwords.NewBcryptHasher(bcrypt.MinCost))
	return fixture{svc: svc, users: users, dir: dir}
}

func (f fixture) createUser(t *testing.T, username string) domaindirectory.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), domaindirectory.User{Username: username, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return user
}

func TestGetSupervisorMissingEntryIsAbsentNotError(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "loner")

	_, found, err := f.svc.GetSupervisor(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetSupervisor() error = %v", err)
	}
	if found {
		t.Fatalf("GetSupervisor() found = true, want false")
	}

	_, found, err = f.svc.GetSupervisor(ctx, 9999)
	if err != nil || found {
		t.Fatalf("GetSupervisor(unknown) = %v, %v", found, err)
	}
}

func TestLookupByUsername(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "employee1")

	got, err := f.svc.Lookup(ctx, " employee1 ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("Lookup() id = %d, want %d", got.ID, user.ID)
	}

	if _, err := f.svc.Lookup(ctx, "nobody"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Lookup(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Lookup(ctx, ""); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Lookup(empty) error = %v, want ErrNotFound", err)
	}
}

func TestAssignSupervisorRequiresFlaggedSupervisor(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	boss := f.createUser(t, "boss")
	peer := f.createUser(t, "peer")
	worker := f.createUser(t, "worker")

	if err := f.svc.AssignSupervisor(ctx, worker.ID, peer.ID); !errors.Is(err, domaindirectory.ErrInvalidSupervisor) {
		t.Fatalf("AssignSupervisor(no entry) error = %v, want ErrInvalidSupervisor", err)
	}

	if err := f.svc.SetSupervisorFlag(ctx, peer.ID, false); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}
	if err := f.svc.AssignSupervisor(ctx, worker.ID, peer.ID); !errors.Is(err, domaindirectory.ErrInvalidSupervisor) {
		t.Fatalf("AssignSupervisor(not flagged) error = %v, want ErrInvalidSupervisor", err)
	}

	if err := f.svc.SetSupervisorFlag(ctx, boss.ID, true); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}
	if err := f.svc.AssignSupervisor(ctx, boss.ID, boss.ID); !errors.Is(err, domaindirectory.ErrSelfSupervision) {
		t.Fatalf("AssignSupervisor(self) error = %v, want ErrSelfSupervision", err)
	}

	if _, found, _ := f.dir.GetEntry(ctx, worker.ID); found {
		t.Fatalf("refused assignment must not create an entry")
	}

	if err := f.svc.AssignSupervisor(ctx, worker.ID, boss.ID); err != nil {
		t.Fatalf("AssignSupervisor() error = %v", err)
	}

	supervisor, found, err := f.svc.GetSupervisor(ctx, worker.ID)
	if err != nil || !found || supervisor.ID != boss.ID {
		t.Fatalf("GetSupervisor() = %+v, %v, %v", supervisor, found, err)
	}

	if err := f.svc.AssignSupervisor(ctx, 9999, boss.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("AssignSupervisor(unknown user) error = %v, want ErrNotFound", err)
	}
}

func TestSupervisedSetOnlyForSupervisors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	boss := f.createUser(t, "boss")
	a := f.createUser(t, "alice")
	b := f.createUser(t, "bob")

	if err := f.svc.SetSupervisorFlag(ctx, boss.ID, true); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}
	for _, u := range []domaindirectory.User{a, b} {
		if err := f.svc.AssignSupervisor(ctx, u.ID, boss.ID); err != nil {
			t.Fatalf("AssignSupervisor() error = %v", err)
		}
	}

	set, err := f.svc.SupervisedSet(ctx, boss.ID)
	if err != nil {
		t.Fatalf("SupervisedSet() error = %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("SupervisedSet() len = %d, want 2", len(set))
	}

	set, err = f.svc.SupervisedSet(ctx, a.ID)
	if err != nil || len(set) != 0 {
		t.Fatalf("SupervisedSet(non-supervisor) = %v, %v", set, err)
	}

	// demoting keeps the reporting line but hides the set
	if err := f.svc.SetSupervisorFlag(ctx, boss.ID, false); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}
	set, err = f.svc.SupervisedSet(ctx, boss.ID)
	if err != nil || len(set) != 0 {
		t.Fatalf("SupervisedSet(demoted) = %v, %v", set, err)
	}
}

const seedTOML = `
[[supervisors]]
username = "supervisor1"
full_name = "John Manager"
password = "supervisor123"

[[employees]]
username = "employee1"
full_name = "Alice Johnson"
password = "employee123"
supervisor = "supervisor1"

[[employees]]
username = "employee2"
password = "employee123"
supervisor = "supervisor1"
`

func TestSeedIsIdempotent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	file, err := ParseSeedFile([]byte(seedTOML))
	if err != nil {
		t.Fatalf("ParseSeedFile() error = %v", err)
	}

	result, err := f.svc.Seed(ctx, file)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if len(result.Created) != 3 || len(result.Updated) != 0 {
		t.Fatalf("Seed() result = %+v", result)
	}

	employee, err := f.users.GetUserByUsername(ctx, "employee1")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	supervisor, found, err := f.svc.GetSupervisor(ctx, employee.ID)
	if err != nil || !found || supervisor.DisplayName() != "John Manager" {
		t.Fatalf("GetSupervisor() = %+v, %v, %v", supervisor, found, err)
	}

	result, err = f.svc.Seed(ctx, file)
	if err != nil {
		t.Fatalf("Seed() second run error = %v", err)
	}
	if len(result.Created) != 0 || len(result.Updated) != 1 {
		t.Fatalf("Seed() second run result = %+v", result)
	}
}

func TestParseSeedFileRejectsUnknownSupervisor(t *testing.T) {
	_, err := ParseSeedFile([]byte("[[employees]]\nusername = \"x\"\nsupervisor = \"ghost\"\n"))
	if err == nil {
		t.Fatalf("ParseSeedFile() expected error")
	}
}

func TestParseSeedFileRejectsUserInBothLists(t *testing.T) {
	raw := "[[supervisors]]\nusername = \"boss\"\n\n[[employees]]\nusername = \"boss\"\nsupervisor = \"boss\"\n"
	if _, err := ParseSeedFile([]byte(raw)); err == nil || !strings.Contains(err.Error(), "both supervisor and employee") {
		t.Fatalf("ParseSeedFile() error = %v, want both-lists rejection", err)
	}
}

func TestSeedRejectsSelfSupervision(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	file := SeedFile{
		Supervisors: []SeedUser{{Username: "boss", Password: "supervisor123"}},
		Employees:   []SeedUser{{Username: "boss", Password: "supervisor123", Supervisor: "boss"}},
	}
	if _, err := f.svc.Seed(ctx, file); !errors.Is(err, domaindirectory.ErrSelfSupervision) {
		t.Fatalf("Seed() error = %v, want ErrSelfSupervision", err)
	}
	if _, err := f.users.GetUserByUsername(ctx, "boss"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetUserByUsername(boss) error = %v, want rollback", err)
	}
}

func TestSeedKeepsSupervisorFlagOfExistingEmployee(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	lead := f.createUser(t, "lead")
	if err := f.svc.SetSupervisorFlag(ctx, lead.ID, true); err != nil {
		t.Fatalf("SetSupervisorFlag() error = %v", err)
	}

	file, err := ParseSeedFile([]byte(seedTOML + "\n[[employees]]\nusername = \"lead\"\nsupervisor = \"supervisor1\"\n"))
	if err != nil {
		t.Fatalf("ParseSeedFile() error = %v", err)
	}
	if _, err := f.svc.Seed(ctx, file); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	entry, found, err := f.svc.Entry(ctx, lead.ID)
	if err != nil || !found {
		t.Fatalf("Entry(lead) = %+v, %v, %v", entry, found, err)
	}
	if !entry.IsSupervisor {
		t.Fatalf("lead lost supervisor flag: %+v", entry)
	}
	boss, err := f.users.GetUserByUsername(ctx, "supervisor1")
	if err != nil {
		t.Fatalf("GetUserByUsername(supervisor1) error = %v", err)
	}
	if !entry.ReportsTo(boss.ID) {
		t.Fatalf("lead entry = %+v, want supervisor %d", entry, boss.ID)
	}
}
