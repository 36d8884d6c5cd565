package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopdesk/ticket-service/internal/domain"
)

var (
	// ErrNotFound is returned when no ticket matches the identifier.
	ErrNotFound = errors.New("ticket not found")
	// ErrVersionConflict is returned by Replace when the stored version moved.
	ErrVersionConflict = errors.New("ticket version conflict")
	// ErrDuplicateKey is returned by Create when the ticketId is already taken.
	ErrDuplicateKey = errors.New("duplicate ticket key")
	// ErrStatusMismatch is returned by UpdateByID when the stored status is
	// not one of the allowed ones.
	ErrStatusMismatch = errors.New("ticket status does not allow this update")
)

// TicketFilter captures list and count predicates. Empty fields are ignored.
type TicketFilter struct {
	Status     domain.TicketStatus
	Priority   domain.TicketPriority
	Category   domain.TicketCategory
	AssignedTo string
	Search     string
}

// ListOptions controls paging. Results are always newest first.
type ListOptions struct {
	Skip  int64
	Limit int64
	// Fields restricts the loaded fields when the backend supports projection.
	Fields []string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter, opts ListOptions) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	// UpdateByID applies patch atomically. When allowed is non-empty the
	// update only happens if the stored status is one of them.
	UpdateByID(ctx context.Context, id string, patch domain.TicketPatch, allowed ...domain.TicketStatus) (*domain.Ticket, error)
	Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	DeleteByID(ctx context.Context, id string) (*domain.Ticket, error)
	Ping(ctx context.Context) error
}

func (f TicketFilter) searchTerm() string {
	return strings.TrimSpace(f.Search)
}

// matches evaluates the filter in process; used by the memory backend.
func (f TicketFilter) matches(t *domain.Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	term := strings.ToLower(f.searchTerm())
	if term == "" {
		return true
	}
	for _, field := range []string{t.Subject, t.TicketID, t.CustomerName, t.CustomerEmail} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func statusAllowed(status domain.TicketStatus, allowed []domain.TicketStatus) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}
