package infrastructure

import (
	"fmt"

	"wagerengine/domain/events"
)

// Subjects the engine publishes on
const (
	SubjectWagerTransition   = "wagers.transition"
	SubjectBalanceChanged    = "wallets.balance_changed"
	SubjectFraudFlagged      = "fraud.flagged"
	SubjectWagerNotification = "notifications.wager"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeWagerTransition:
		return SubjectWagerTransition
	case events.EventTypeBalanceChange:
		return SubjectBalanceChanged
	case events.EventTypeFraudFlagged:
		return SubjectFraudFlagged
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectWagerTransition:
		return events.EventTypeWagerTransition
	case SubjectBalanceChanged:
		return events.EventTypeBalanceChange
	case SubjectFraudFlagged:
		return events.EventTypeFraudFlagged
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns every domain event subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectWagerTransition,
		SubjectBalanceChanged,
		SubjectFraudFlagged,
	}
}
