package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/repository"
)

type mockTicketRepository struct {
	mock.Mock
}

var _ repository.TicketRepository = (*mockTicketRepository)(nil)

func (m *mockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, string) *domain.Ticket); ok {
		return fn(ctx, id), args.Error(1)
	}
	ticket, _ := args.Get(0).(*domain.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketRepository) List(ctx context.Context, filter repository.TicketFilter, opts repository.ListOptions) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter, opts)
	tickets, _ := args.Get(0).([]domain.Ticket)
	return tickets, args.Error(1)
}

func (m *mockTicketRepository) Count(ctx context.Context, filter repository.TicketFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTicketRepository) UpdateByID(ctx context.Context, id string, patch domain.TicketPatch, allowed ...domain.TicketStatus) (*domain.Ticket, error) {
	args := m.Called(ctx, id, patch, allowed)
	ticket, _ := args.Get(0).(*domain.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketRepository) Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Ticket) *domain.Ticket); ok {
		return fn(ctx, ticket), args.Error(1)
	}
	saved, _ := args.Get(0).(*domain.Ticket)
	return saved, args.Error(1)
}

func (m *mockTicketRepository) DeleteByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	ticket, _ := args.Get(0).(*domain.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
