package infrastructure

import (
	"context"
	"errors"
	"testing"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func testTransitionEvent(wagerID int64) events.WagerTransitionEvent {
	return events.WagerTransitionEvent{
		TransitionID:   wagerID * 10,
		WagerID:        wagerID,
		TransitionType: entities.TransitionStarted,
		FromStatus:     entities.WagerStatusOpen,
		ToStatus:       entities.WagerStatusInProgress,
		DisputeStatus:  entities.DisputeStatusNone,
		TotalPot:       200,
	}
}

func TestNATSTransactionalPublisher_QueuesUntilFlush(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	testEvent := testTransitionEvent(123)

	err := transPublisher.Publish(testEvent)
	require.NoError(t, err)

	// Nothing leaves before commit
	assert.Len(t, mockPublisher.PublishedEvents, 0)
	assert.Equal(t, 1, transPublisher.PendingCount())

	err = transPublisher.Flush(context.Background())
	require.NoError(t, err)

	require.Len(t, mockPublisher.PublishedEvents, 1)
	assert.Equal(t, testEvent, mockPublisher.PublishedEvents[0])
	assert.Equal(t, 0, transPublisher.PendingCount())
}

func TestNATSTransactionalPublisher_FlushPreservesOrder(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	first := testTransitionEvent(1)
	second := events.BalanceChangeEvent{UserID: 7, TransactionID: 3, OldBalance: 100, NewBalance: 50, ChangeAmount: -50}
	third := testTransitionEvent(2)

	require.NoError(t, transPublisher.Publish(first))
	require.NoError(t, transPublisher.Publish(second))
	require.NoError(t, transPublisher.Publish(third))

	require.NoError(t, transPublisher.Flush(context.Background()))

	assert.Equal(t, []events.Event{first, second, third}, mockPublisher.PublishedEvents)
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	err := transPublisher.Publish(testTransitionEvent(123))
	require.NoError(t, err)

	// Discard instead of flush
	transPublisher.Discard()

	assert.Equal(t, 0, transPublisher.PendingCount())

	// A later flush publishes nothing
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 0)
}

func TestNATSTransactionalPublisher_FlushContinuesAfterFailure(t *testing.T) {
	mockPublisher := &MockEventPublisher{PublishError: errors.New("nats down")}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(testTransitionEvent(1)))
	require.NoError(t, transPublisher.Publish(testTransitionEvent(2)))

	err := transPublisher.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, transPublisher.PendingCount())
}
