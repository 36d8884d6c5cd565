package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopdesk/ticket-service/internal/domain"
)

type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryTicketRepository returns a process-local store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.TicketID == ticket.TicketID {
			return fmt.Errorf("create %s: %w", ticket.TicketID, ErrDuplicateKey)
		}
	}
	now := time.Now().UTC()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) List(_ context.Context, filter TicketFilter, opts ListOptions) ([]domain.Ticket, error) {
	r.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.matches(ticket) {
			matched = append(matched, *ticket.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := opts.Skip
	if start < 0 {
		start = 0
	}
	if start >= int64(len(matched)) {
		return []domain.Ticket{}, nil
	}
	end := int64(len(matched))
	if opts.Limit > 0 && opts.Limit < end-start {
		end = start + opts.Limit
	}
	return matched[start:end], nil
}

func (r *memoryTicketRepository) Count(_ context.Context, filter TicketFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, ticket := range r.tickets {
		if filter.matches(ticket) {
			total++
		}
	}
	return total, nil
}

func (r *memoryTicketRepository) UpdateByID(_ context.Context, id string, patch domain.TicketPatch, allowed ...domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !statusAllowed(ticket.Status, allowed) {
		return nil, ErrStatusMismatch
	}
	patch.Apply(ticket, time.Now().UTC())
	ticket.Version++
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) Replace(_ context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if stored.Version != ticket.Version {
		return nil, ErrVersionConflict
	}
	next := ticket.Clone()
	next.TicketID = stored.TicketID
	next.CreatedAt = stored.CreatedAt
	next.Version = stored.Version + 1
	r.tickets[next.ID] = next
	return next.Clone(), nil
}

func (r *memoryTicketRepository) DeleteByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.tickets, id)
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) Ping(context.Context) error {
	return nil
}
