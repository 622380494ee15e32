// Package directory models the organisational hierarchy: who is a supervisor and
// which supervisor each user reports to.
package directory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSupervisor = errors.New("invalid supervisor")
	ErrSelfSupervision   = fmt.Errorf("%w: user cannot supervise themselves", ErrInvalidSupervisor)
)

type User struct {
	ID           uint64
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName is the full name when set, otherwise the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Username
}

// Entry is a user's position in the directory. At most one exists per user.
type Entry struct {
	UserID       uint64
	IsSupervisor bool
	SupervisorID *uint64
}

func (e Entry) HasSupervisor() bool {
	return e.SupervisorID != nil
}

func (e Entry) ReportsTo(supervisorID uint64) bool {
	return e.SupervisorID != nil && *e.SupervisorID == supervisorID
}

// ValidateAssignment checks that supervisor (looked up by supervisorID) may be
// assigned to userID. found reports whether the supervisor has a directory entry.
func ValidateAssignment(userID uint64, supervisorID uint64, supervisor Entry, found bool) error {
	if userID == supervisorID {
		return fmt.Errorf("%w: user %d", ErrSelfSupervision, userID)
	}
	if !found {
		return fmt.Errorf("%w: user %d has no directory entry", ErrInvalidSupervisor, supervisorID)
	}
	if !supervisor.IsSupervisor {
		return fmt.Errorf("%w: user %d is not flagged as supervisor", ErrInvalidSupervisor, supervisorID)
	}
	return nil
}
