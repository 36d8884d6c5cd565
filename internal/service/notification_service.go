package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopdesk/ticket-service/internal/events"
)

// EventForwarder ships events outside the process.
type EventForwarder interface {
	Forward(ctx context.Context, event events.Event) error
}

// NotificationService relays ticket events to other services.
type NotificationService struct {
	dispatcher events.Dispatcher
	forwarder  EventForwarder
	logger     *zap.Logger
}

// NewNotificationService creates the service. forwarder may be nil, in which
// case events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, forwarder EventForwarder, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		forwarder:  forwarder,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeTicketEvents(n.dispatcher, n.handleTicketEvent)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Debug("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketKey),
		zap.String("event_id", event.ID))
	if n.forwarder == nil {
		return nil
	}
	if err := n.forwarder.Forward(ctx, event); err != nil {
		n.logger.Warn("forward ticket event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketKey),
			zap.Error(err))
		return err
	}
	return nil
}
