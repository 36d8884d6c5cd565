package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk/ticket-service/internal/events"
)

func TestRecordRequestAndError(t *testing.T) {
	metrics := NewMetrics("test")

	metrics.RecordRequest("/api/tickets", "GET", 200, 15*time.Millisecond)
	metrics.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	metrics.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requestCount.WithLabelValues("/api/tickets", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errorCount.WithLabelValues("/api/tickets/:id", "GET", "NOT_FOUND")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.RecordRequest("/", "GET", 200, time.Millisecond)
		metrics.RecordError("/", "GET", "INTERNAL_ERROR")
	})
}

func TestObserveTicketEvents(t *testing.T) {
	metrics := NewMetrics("test")
	dispatcher := events.NewInMemoryDispatcher()
	metrics.ObserveTicketEvents(dispatcher)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketResolved}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketResolved}))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ticketEvents.WithLabelValues(string(events.EventTicketResolved))))
	assert.Zero(t, testutil.ToFloat64(metrics.ticketEvents.WithLabelValues(string(events.EventTicketCreated))))
}
