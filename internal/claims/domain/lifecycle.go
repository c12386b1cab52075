package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a damage.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRefused     Status = "refused"
	StatusResubmitted Status = "resubmitted"
)

// EventType names a history entry.
type EventType string

const (
	EventCreated     EventType = "created"
	EventApproved    EventType = "approved"
	EventRefused     EventType = "refused"
	EventResubmitted EventType = "resubmitted"
)

// transitions lists the statuses reachable from each status. Approved is terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusApproved, StatusRefused},
	StatusResubmitted: {StatusApproved, StatusRefused},
	StatusRefused:     {StatusResubmitted},
}

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRefused, StatusResubmitted:
		return true
	}
	return false
}

// CanTransition reports whether a damage in from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsReviewDecision reports whether s is a status produced by external review.
func IsReviewDecision(s Status) bool {
	return s == StatusApproved || s == StatusRefused
}

// EventTypeFor returns the history event kind recorded when entering status.
func EventTypeFor(status Status) EventType {
	switch status {
	case StatusApproved:
		return EventApproved
	case StatusRefused:
		return EventRefused
	case StatusResubmitted:
		return EventResubmitted
	default:
		return EventCreated
	}
}

// NewCreatedEvent builds the first event of every damage timeline.
func NewCreatedEvent(damageID uuid.UUID, actor string, at time.Time) HistoryEvent {
	return HistoryEvent{
		DamageID:  damageID,
		EventType: EventCreated,
		Status:    StatusPending,
		CreatedBy: actor,
		CreatedAt: at,
	}
}

// NewTransitionEvent builds the event recorded when a damage enters status.
// Reason and comment are kept only for refusals.
func NewTransitionEvent(damageID uuid.UUID, status Status, actor string, at time.Time, reason, comment *string) HistoryEvent {
	ev := HistoryEvent{
		DamageID:  damageID,
		EventType: EventTypeFor(status),
		Status:    status,
		CreatedBy: actor,
		CreatedAt: at,
	}
	if status == StatusRefused {
		ev.RefusalReason = reason
		ev.RefusalComment = comment
	}
	return ev
}
