package application

import (
	"context"
	"fmt"

	"wagerengine/domain/events"
	"wagerengine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ChangeFeedHandler reacts to committed wager transitions
type ChangeFeedHandler struct {
	cache    SummaryCache
	notifier WagerNotifier
}

// NewChangeFeedHandler creates a handler. Either collaborator may be nil.
func NewChangeFeedHandler(cache SummaryCache, notifier WagerNotifier) *ChangeFeedHandler {
	return &ChangeFeedHandler{
		cache:    cache,
		notifier: notifier,
	}
}

// HandleWagerTransition invalidates the summary, notifies participants and
// counts the transition. Notification failures are logged only.
func (h *ChangeFeedHandler) HandleWagerTransition(ctx context.Context, event events.Event) error {
	transition, ok := event.(events.WagerTransitionEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	observability.GetMetrics().RecordTransition(string(transition.TransitionType))

	var invalidateErr error
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, transition.WagerID); err != nil {
			invalidateErr = fmt.Errorf("failed to invalidate summary for wager %d: %w", transition.WagerID, err)
		}
	}

	if h.notifier != nil {
		if err := h.notifier.Notify(ctx, transition); err != nil {
			log.WithFields(log.Fields{
				"wagerID":      transition.WagerID,
				"transitionID": transition.TransitionID,
				"error":        err,
			}).Warn("Failed to dispatch wager notification")
		}
	}

	return invalidateErr
}
