package dto

import (
	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/service"
)

// Envelope is the uniform response wrapper for every ticket endpoint.
type Envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
	Details    map[string]any      `json:"details,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	CustomerName  string                `json:"customerName"`
	CustomerEmail string                `json:"customerEmail"`
	CustomerID    string                `json:"customerId"`
	Attachments   []domain.Attachment   `json:"attachments"`
}

// ToInput converts the payload for the ticket service.
func (r CreateTicketRequest) ToInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		Subject:       r.Subject,
		Description:   r.Description,
		Category:      r.Category,
		Priority:      r.Priority,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerID:    r.CustomerID,
		Attachments:   r.Attachments,
	}
}

// UpdateTicketRequest is the administrative partial update. Fields left out
// of the body are not touched.
type UpdateTicketRequest = domain.TicketPatch

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedTo     string `json:"assignedTo"`
	AssignedToName string `json:"assignedToName"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Resolution string `json:"resolution"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Message    string `json:"message"`
	IsInternal bool   `json:"isInternal"`
}
