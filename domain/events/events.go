package events

import (
	"time"

	"wagerengine/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerTransition EventType = "wager_transition"
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeFraudFlagged    EventType = "fraud_flagged"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WagerTransitionEvent is emitted once per committed wager transition
type WagerTransitionEvent struct {
	TransitionID   int64                   `json:"transition_id"`
	WagerID        int64                   `json:"wager_id"`
	TransitionType entities.TransitionType `json:"transition_type"`
	FromStatus     entities.WagerStatus    `json:"from_status"`
	ToStatus       entities.WagerStatus    `json:"to_status"`
	DisputeStatus  entities.DisputeStatus  `json:"dispute_status"`
	Terminal       bool                    `json:"terminal"`
	ActorID        *int64                  `json:"actor_id,omitempty"`
	TotalPot       int64                   `json:"total_pot"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

func (e WagerTransitionEvent) Type() EventType {
	return EventTypeWagerTransition
}

// NewWagerTransitionEvent builds the event from a persisted change-feed row
func NewWagerTransitionEvent(t *entities.WagerTransition, totalPot int64) WagerTransitionEvent {
	return WagerTransitionEvent{
		TransitionID:   t.ID,
		WagerID:        t.WagerID,
		TransitionType: t.TransitionType,
		FromStatus:     t.FromStatus,
		ToStatus:       t.ToStatus,
		DisputeStatus:  t.DisputeStatus,
		Terminal:       t.Terminal,
		ActorID:        t.ActorID,
		TotalPot:       totalPot,
		OccurredAt:     t.CreatedAt,
	}
}

// BalanceChangeEvent represents a committed wallet ledger entry
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	TransactionID   int64                    `json:"transaction_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	RelatedID       *int64                   `json:"related_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// FraudFlaggedEvent is emitted when an anti-abuse check fires
type FraudFlaggedEvent struct {
	FlagID   int64                  `json:"flag_id"`
	WagerID  int64                  `json:"wager_id"`
	UserID   *int64                 `json:"user_id,omitempty"`
	Signal   entities.FraudSignal   `json:"signal"`
	Severity entities.FraudSeverity `json:"severity"`
}

func (e FraudFlaggedEvent) Type() EventType {
	return EventTypeFraudFlagged
}
