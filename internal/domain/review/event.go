package review

import "time"

type EventKind string

const (
	EventSubmitted EventKind = "submitted"
	EventApproved  EventKind = "approved"
	EventRejected  EventKind = "rejected"
)

// Event is one entry in a review's append-only audit trail.
type Event struct {
	ID        uint64
	ReviewID  uint64
	ActorID   uint64
	Kind      EventKind
	Note      string
	CreatedAt time.Time
}

// DecisionEvent records the transition Decide produced.
func DecisionEvent(decided Record) Event {
	kind := EventRejected
	if decided.Status == StatusApproved {
		kind = EventApproved
	}
	event := Event{ReviewID: decided.ID, Kind: kind}
	if decided.ApprovedBy != nil {
		event.ActorID = *decided.ApprovedBy
	}
	if decided.ApprovedAt != nil {
		event.CreatedAt = *decided.ApprovedAt
	}
	return event
}
