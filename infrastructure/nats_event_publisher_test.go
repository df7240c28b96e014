package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	msgPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(msgPublisher, NewEventSubjectMapper())

	var captured []byte
	msgPublisher.On("Publish", mock.Anything, SubjectWagerTransition, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).([]byte) }).
		Return(nil)

	event := testTransitionEvent(42)
	require.NoError(t, publisher.Publish(event))
	msgPublisher.AssertExpectations(t)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(captured, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, string(events.EventTypeWagerTransition), envelope.EventType)
	assert.Equal(t, SourceService, envelope.SourceService)

	var payload events.WagerTransitionEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, int64(42), payload.WagerID)
	assert.Equal(t, entities.WagerStatusInProgress, payload.ToStatus)
}

func TestNATSEventPublisher_LocalHandlersRunBeforeBus(t *testing.T) {
	msgPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(msgPublisher, NewEventSubjectMapper())

	var order []string
	publisher.RegisterLocalHandler(events.EventTypeWagerTransition, func(ctx context.Context, event events.Event) error {
		order = append(order, "handler")
		return errors.New("handler failure is logged only")
	})
	msgPublisher.On("Publish", mock.Anything, SubjectWagerTransition, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, "bus") }).
		Return(nil)

	require.NoError(t, publisher.Publish(testTransitionEvent(1)))
	assert.Equal(t, []string{"handler", "bus"}, order)
}

func TestNATSEventPublisher_LocalOnly(t *testing.T) {
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	called := 0
	publisher.RegisterLocalHandler(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) error {
		called++
		return nil
	})

	require.NoError(t, publisher.Publish(events.BalanceChangeEvent{UserID: 1}))
	require.NoError(t, publisher.Publish(testTransitionEvent(1)))
	assert.Equal(t, 1, called)
}

func TestNATSEventPublisher_BusErrorReturned(t *testing.T) {
	msgPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(msgPublisher, NewEventSubjectMapper())

	msgPublisher.On("Publish", mock.Anything, SubjectFraudFlagged, mock.Anything).Return(errors.New("timeout"))

	err := publisher.Publish(events.FraudFlaggedEvent{FlagID: 1, WagerID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event to NATS")
}

func TestNATSEventPublisher_OnPublished(t *testing.T) {
	msgPublisher := new(MockMessagePublisher)
	publisher := NewNATSEventPublisher(msgPublisher, NewEventSubjectMapper())
	msgPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var published []string
	publisher.OnPublished(func(eventType string) { published = append(published, eventType) })

	require.NoError(t, publisher.Publish(events.BalanceChangeEvent{UserID: 1}))
	assert.Equal(t, []string{string(events.EventTypeBalanceChange)}, published)
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{testTransitionEvent(1), SubjectWagerTransition},
		{events.BalanceChangeEvent{}, SubjectBalanceChanged},
		{events.FraudFlaggedEvent{}, SubjectFraudFlagged},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(subject))
		})
	}

	// Every published subject is captured by the stream
	for _, subject := range mapper.GetAllSubjects() {
		matched := false
		for _, pattern := range WagerEventSubjects {
			prefix := pattern[:len(pattern)-1]
			if len(subject) > len(prefix) && subject[:len(prefix)] == prefix {
				matched = true
			}
		}
		assert.True(t, matched, "subject %s not covered by stream", subject)
	}
}

func TestNotificationDispatcher_PublishesToNotificationSubject(t *testing.T) {
	msgPublisher := new(MockMessagePublisher)
	dispatcher := NewNotificationDispatcher(msgPublisher)

	var captured []byte
	msgPublisher.On("Publish", mock.Anything, SubjectWagerNotification, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).([]byte) }).
		Return(nil)

	event := testTransitionEvent(9)
	event.Terminal = true
	require.NoError(t, dispatcher.Notify(context.Background(), event))

	var notification WagerNotification
	require.NoError(t, json.Unmarshal(captured, &notification))
	assert.Equal(t, int64(9), notification.WagerID)
	assert.Equal(t, string(entities.WagerStatusInProgress), notification.Status)
	assert.True(t, notification.Terminal)
}

func TestNotificationDispatcher_WithoutPublisher(t *testing.T) {
	dispatcher := NewNotificationDispatcher(nil)
	assert.NoError(t, dispatcher.Notify(context.Background(), testTransitionEvent(1)))
}
