// Package review holds the moderated user review record and the pure rules
// governing its pending -> approved|rejected lifecycle.
package review

import (
	"fmt"
	"strings"
	"time"

	"appreview/internal/domain/sentiment"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
	}
}

func (a Action) target() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Record is a user-submitted review. ApprovedBy and ApprovedAt are set together
// with the terminal status and never independently.
type Record struct {
	ID         uint64
	EntryID    uint64
	AuthorID   uint64
	Body       string
	Rating     int
	Status     Status
	CreatedAt  time.Time
	ApprovedBy *uint64
	ApprovedAt *time.Time
	Sentiment  *sentiment.Result
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return nil
}

// Authorize allows an action only when the actor is flagged as a supervisor and
// is the supervisor currently assigned to the review's author.
func Authorize(actorID uint64, actorIsSupervisor bool, authorSupervisorID *uint64) error {
	if !actorIsSupervisor {
		return fmt.Errorf("%w: user %d is not a supervisor", ErrUnauthorizedApprover, actorID)
	}
	if authorSupervisorID == nil || *authorSupervisorID != actorID {
		return fmt.Errorf("%w: user %d", ErrUnauthorizedApprover, actorID)
	}
	return nil
}

// Decide returns the decided copy of r. The input is never modified.
func Decide(r Record, action Action, actorID uint64, at time.Time) (Record, error) {
	if action != ActionApprove && action != ActionReject {
		return r, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if r.Status != StatusPending {
		return r, fmt.Errorf("%w: review %d is %s", ErrAlreadyDecided, r.ID, r.Status)
	}

	decidedBy := actorID
	decidedAt := at.UTC()
	next := r
	next.Status = action.target()
	next.ApprovedBy = &decidedBy
	next.ApprovedAt = &decidedAt
	return next, nil
}

func IsVisible(r Record) bool {
	return r.Status == StatusApproved
}

func FilterVisible(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if IsVisible(r) {
			out = append(out, r)
		}
	}
	return out
}
