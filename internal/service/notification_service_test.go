package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shopdesk/ticket-service/internal/events"
)

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) Forward(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func TestNotificationServiceForwardsEveryEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	forwarder := &mockForwarder{}
	forwarder.On("Forward", mock.Anything, mock.Anything).Return(nil)
	NewNotificationService(dispatcher, forwarder, nil).RegisterHandlers()

	for _, eventType := range events.AllEventTypes {
		assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{ID: string(eventType), Type: eventType}))
	}
	forwarder.AssertNumberOfCalls(t, "Forward", len(events.AllEventTypes))
}

func TestNotificationServiceSurfacesForwardErrors(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	forwarder := &mockForwarder{}
	forwarder.On("Forward", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	NewNotificationService(dispatcher, forwarder, nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated})
	assert.EqualError(t, err, "redis down")
}

func TestNotificationServiceWithoutForwarder(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, nil).RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted}))
}
