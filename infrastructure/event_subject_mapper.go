package infrastructure

import (
	"fmt"
	"sort"

	"oddsmatch/domain/events"
)

const subjectPrefix = "betting."

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:     "betting.balance_changed",
	events.EventTypeBetPlaced:         "betting.bet.placed",
	events.EventTypeBetMatched:        "betting.bet.matched",
	events.EventTypeBetCancelled:      "betting.bet.cancelled",
	events.EventTypeBetUpdated:        "betting.bet.updated",
	events.EventTypeBetRestored:       "betting.bet.restored",
	events.EventTypeBetResolved:       "betting.bet.resolved",
	events.EventTypeGameStatusChanged: "betting.game.status_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("%sunknown.%s", subjectPrefix, event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to, sorted
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(eventSubjects)+1)
	for _, subject := range eventSubjects {
		subjects = append(subjects, subject)
	}
	subjects = append(subjects, subjectPrefix+"unknown.*")
	sort.Strings(subjects)
	return subjects
}
