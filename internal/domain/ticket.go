package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategory classifies what the request is about.
type TicketCategory string

const (
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryGeneral   TicketCategory = "general"
	TicketCategoryFeature   TicketCategory = "feature"
	TicketCategoryOrder     TicketCategory = "order"
	TicketCategoryAccount   TicketCategory = "account"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string         `json:"id"`
	TicketID       string         `json:"ticketId"`
	Subject        string         `json:"subject"`
	Description    string         `json:"description"`
	Category       TicketCategory `json:"category"`
	Priority       TicketPriority `json:"priority"`
	Status         TicketStatus   `json:"status"`
	CustomerName   string         `json:"customerName"`
	CustomerEmail  string         `json:"customerEmail"`
	CustomerID     string         `json:"customerId,omitempty"`
	AssignedTo     string         `json:"assignedTo,omitempty"`
	AssignedToName string         `json:"assignedToName,omitempty"`
	Resolution     string         `json:"resolution,omitempty"`
	Comments       []Comment      `json:"comments"`
	Attachments    []Attachment   `json:"attachments"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	ResolvedAt     *time.Time     `json:"resolvedAt,omitempty"`
	Version        int64          `json:"version"`
}

// Comment is a thread entry owned by its ticket. The author fields are a
// snapshot taken at write time.
type Comment struct {
	UserID     string    `json:"userId" bson:"userId"`
	UserName   string    `json:"userName" bson:"userName"`
	UserRole   string    `json:"userRole" bson:"userRole"`
	Message    string    `json:"message" bson:"message"`
	IsInternal bool      `json:"isInternal" bson:"isInternal"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Attachment references a file uploaded alongside the ticket.
type Attachment struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
	Type string `json:"type,omitempty" bson:"type,omitempty"`
	Size int64  `json:"size,omitempty" bson:"size,omitempty"`
}

// TicketSummary is the reduced projection used on dashboards.
type TicketSummary struct {
	ID           string         `json:"id"`
	TicketID     string         `json:"ticketId"`
	Subject      string         `json:"subject"`
	Status       TicketStatus   `json:"status"`
	Priority     TicketPriority `json:"priority"`
	Category     TicketCategory `json:"category"`
	CustomerName string         `json:"customerName"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Summary projects the ticket to its dashboard view.
func (t *Ticket) Summary() TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		TicketID:     t.TicketID,
		Subject:      t.Subject,
		Status:       t.Status,
		Priority:     t.Priority,
		Category:     t.Category,
		CustomerName: t.CustomerName,
		CreatedAt:    t.CreatedAt,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (t *Ticket) Clone() *Ticket {
	cp := *t
	cp.Comments = make([]Comment, len(t.Comments))
	copy(cp.Comments, t.Comments)
	cp.Attachments = make([]Attachment, len(t.Attachments))
	copy(cp.Attachments, t.Attachments)
	if t.ResolvedAt != nil {
		resolvedAt := *t.ResolvedAt
		cp.ResolvedAt = &resolvedAt
	}
	return &cp
}

// IsTerminal reports whether no further lifecycle moves are allowed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}
