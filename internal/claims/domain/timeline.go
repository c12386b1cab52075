package domain

import (
	"errors"
	"slices"
)

// ErrTimelineStart is returned when a timeline does not open with created/pending.
var ErrTimelineStart = errors.New("timeline must begin with a created/pending event")

// SortTimeline orders events by creation time ascending. Equal timestamps keep
// their insertion order (Seq, then input position).
func SortTimeline(events []HistoryEvent) {
	slices.SortStableFunc(events, func(a, b HistoryEvent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
}

// ValidateTimeline checks an ordered timeline starts with the creation event.
// An empty timeline is valid.
func ValidateTimeline(events []HistoryEvent) error {
	if len(events) == 0 {
		return nil
	}
	first := events[0]
	if first.EventType != EventCreated || first.Status != StatusPending {
		return ErrTimelineStart
	}
	return nil
}

// ProjectStatus returns the status of the latest event in an ordered timeline.
func ProjectStatus(events []HistoryEvent) (Status, bool) {
	if len(events) == 0 {
		return "", false
	}
	return events[len(events)-1].Status, true
}

// EventTitle is the display title of a timeline entry.
func EventTitle(ev HistoryEvent) string {
	if ev.EventType == EventCreated {
		return "Damage Created"
	}
	switch ev.Status {
	case StatusApproved:
		return "Approved"
	case StatusRefused:
		return "Refused"
	case StatusResubmitted:
		return "Resubmitted"
	}
	return string(ev.EventType)
}
