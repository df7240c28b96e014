package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"wagerengine/domain/events"

	log "github.com/sirupsen/logrus"
)

// WagerNotification is what participants' notification channels receive
type WagerNotification struct {
	WagerID        int64  `json:"wager_id"`
	TransitionID   int64  `json:"transition_id"`
	TransitionType string `json:"transition_type"`
	Status         string `json:"status"`
	DisputeStatus  string `json:"dispute_status"`
	TotalPot       int64  `json:"total_pot"`
	Terminal       bool   `json:"terminal"`
}

// NotificationDispatcher forwards wager transitions to the notifications subject
type NotificationDispatcher struct {
	publisher MessagePublisher
}

// NewNotificationDispatcher creates a dispatcher. A nil publisher only logs.
func NewNotificationDispatcher(publisher MessagePublisher) *NotificationDispatcher {
	return &NotificationDispatcher{publisher: publisher}
}

// Notify sends one notification for a committed transition
func (d *NotificationDispatcher) Notify(ctx context.Context, event events.WagerTransitionEvent) error {
	notification := WagerNotification{
		WagerID:        event.WagerID,
		TransitionID:   event.TransitionID,
		TransitionType: string(event.TransitionType),
		Status:         string(event.ToStatus),
		DisputeStatus:  string(event.DisputeStatus),
		TotalPot:       event.TotalPot,
		Terminal:       event.Terminal,
	}

	log.WithFields(log.Fields{
		"wagerID":        event.WagerID,
		"transitionType": event.TransitionType,
		"status":         event.ToStatus,
	}).Info("Dispatching wager notification")

	if d.publisher == nil {
		return nil
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal wager notification: %w", err)
	}
	if err := d.publisher.Publish(ctx, SubjectWagerNotification, data); err != nil {
		return fmt.Errorf("failed to publish wager notification: %w", err)
	}
	return nil
}
