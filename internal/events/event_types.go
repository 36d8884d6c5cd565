package events

import (
	"time"

	"github.com/shopdesk/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketAssigned     EventType = "ticket_assigned"
	EventTicketResolved     EventType = "ticket_resolved"
	EventTicketCommentAdded EventType = "ticket_comment_added"
	EventTicketDeleted      EventType = "ticket_deleted"
)

// AllEventTypes lists every event the ticket service emits.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketAssigned,
	EventTicketResolved,
	EventTicketCommentAdded,
	EventTicketDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	TicketKey string      `json:"ticket_key"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Subject       string                `json:"subject"`
	CustomerEmail string                `json:"customer_email"`
}

// TicketUpdatedPayload lists the fields an administrative update touched.
type TicketUpdatedPayload struct {
	Fields []string            `json:"fields"`
	Status domain.TicketStatus `json:"status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo     string `json:"assigned_to"`
	AssignedToName string `json:"assigned_to_name,omitempty"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Resolution string    `json:"resolution"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	AuthorID       string `json:"author_id"`
	AuthorRole     string `json:"author_role"`
	IsInternal     bool   `json:"is_internal"`
	MessagePreview string `json:"message_preview"`
}
