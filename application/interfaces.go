package application

import (
	"context"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"
)

// SummaryCache holds read-mostly wager summaries outside the database
type SummaryCache interface {
	// Get returns the cached summary, or nil on a miss together with the
	// wager's current invalidation generation
	Get(ctx context.Context, wagerID int64) (*entities.WagerDetail, int64, error)

	// Set stores a summary read after Get returned generation. It is a no-op
	// when an invalidation has happened since.
	Set(ctx context.Context, detail *entities.WagerDetail, generation int64) error

	// Invalidate drops a wager's cached summary and bumps its generation
	Invalidate(ctx context.Context, wagerID int64) error
}

// WagerNotifier tells participants about committed transitions
type WagerNotifier interface {
	Notify(ctx context.Context, event events.WagerTransitionEvent) error
}
