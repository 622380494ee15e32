package review

import "errors"

var (
	ErrNotAuthenticated     = errors.New("author is not authenticated")
	ErrNoSupervisorAssigned = errors.New("no supervisor assigned")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrUnauthorizedApprover = errors.New("actor is not the author's supervisor")
	ErrAlreadyDecided       = errors.New("review already decided")
	ErrInvalidAction        = errors.New("invalid review action")
)
