package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/repository"
	apperrors "github.com/shopdesk/ticket-service/pkg/util/errorutil"
)

func seedStatus(t *testing.T, repo repository.TicketRepository, status domain.TicketStatus, priority domain.TicketPriority, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ticket := &domain.Ticket{
			TicketID:      fmt.Sprintf("TKT-%s-%s-%d", status, priority, i),
			Subject:       "Seeded ticket",
			Description:   "Seeded description",
			Category:      domain.TicketCategoryGeneral,
			Priority:      priority,
			Status:        status,
			CustomerName:  "Seed",
			CustomerEmail: "seed@example.com",
		}
		require.NoError(t, repo.Create(context.Background(), ticket))
	}
}

func TestListTicketsFiltersByStatus(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	seedStatus(t, repo, domain.TicketStatusOpen, domain.TicketPriorityLow, 25)
	seedStatus(t, repo, domain.TicketStatusResolved, domain.TicketPriorityLow, 4)
	svc := NewTicketQueryService(repo, nil)

	page, err := svc.ListTickets(context.Background(), TicketListQuery{Status: domain.TicketStatusOpen, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, page.Tickets, 20)
	for _, ticket := range page.Tickets {
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	}

	count, err := repo.Count(context.Background(), repository.TicketFilter{Status: domain.TicketStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, count, page.Pagination.Total)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 25, Pages: 2}, page.Pagination)

	second, err := svc.ListTickets(context.Background(), TicketListQuery{Status: domain.TicketStatusOpen, Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, second.Tickets, 5)
}

func TestListTicketsDefaults(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	svc := NewTicketQueryService(repo, nil)

	page, err := svc.ListTickets(context.Background(), TicketListQuery{})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 0, Pages: 0}, page.Pagination)
	assert.NotNil(t, page.Tickets)

	wide, err := svc.ListTickets(context.Background(), TicketListQuery{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 5000, wide.Pagination.Limit)
}

func TestListTicketsHugePageAndLimit(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(context.Background(), &domain.Ticket{
			TicketID: fmt.Sprintf("TKT-0000000%d", i),
			Subject:  "Subject",
			Status:   domain.TicketStatusOpen,
		}))
	}
	svc := NewTicketQueryService(repo, nil)

	far, err := svc.ListTickets(context.Background(), TicketListQuery{Page: math.MaxInt, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, far.Tickets)
	assert.Equal(t, Pagination{Page: math.MaxInt, Limit: 20, Total: 3, Pages: 1}, far.Pagination)

	all, err := svc.ListTickets(context.Background(), TicketListQuery{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, all.Tickets, 3)
	assert.Equal(t, int64(1), all.Pagination.Pages)

	assert.Equal(t, int64(math.MaxInt64), pageOffset(math.MaxInt, 20))
	assert.Equal(t, int64(40), pageOffset(3, 20))
	assert.Equal(t, int64(0), pageCount(0, 20))
	assert.Equal(t, int64(2), pageCount(21, 20))
}

func TestListTicketsPassesHugeSkipToStore(t *testing.T) {
	repo := &mockTicketRepository{}
	repo.On("List", mock.Anything, repository.TicketFilter{}, repository.ListOptions{Skip: math.MaxInt64, Limit: 500}).Return([]domain.Ticket{}, nil)
	repo.On("Count", mock.Anything, repository.TicketFilter{}).Return(int64(0), nil)
	svc := NewTicketQueryService(repo, nil)

	page, err := svc.ListTickets(context.Background(), TicketListQuery{Page: math.MaxInt, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 500, page.Pagination.Limit)
	repo.AssertExpectations(t)
}

func TestListTicketsPassesSearchAndPaging(t *testing.T) {
	repo := &mockTicketRepository{}
	filter := repository.TicketFilter{Priority: domain.TicketPriorityHigh, AssignedTo: "agent-1", Search: "refund"}
	repo.On("List", mock.Anything, filter, repository.ListOptions{Skip: 20, Limit: 10}).Return([]domain.Ticket{}, nil)
	repo.On("Count", mock.Anything, filter).Return(int64(21), nil)
	svc := NewTicketQueryService(repo, nil)

	page, err := svc.ListTickets(context.Background(), TicketListQuery{
		Priority:   domain.TicketPriorityHigh,
		AssignedTo: " agent-1 ",
		Search:     "refund",
		Page:       3,
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Pages)
	repo.AssertExpectations(t)
}

func TestGetStatsCountsEveryStatus(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	seedStatus(t, repo, domain.TicketStatusOpen, domain.TicketPriorityHigh, 3)
	seedStatus(t, repo, domain.TicketStatusResolved, domain.TicketPriorityLow, 2)
	seedStatus(t, repo, domain.TicketStatusClosed, domain.TicketPriorityUrgent, 1)
	svc := NewTicketQueryService(repo, nil)

	stats, err := svc.GetStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, StatusCounts{Open: 3, InProgress: 0, Pending: 0, Resolved: 2, Closed: 1}, stats.ByStatus)
	assert.Equal(t, PriorityCounts{High: 3, Medium: 0, Low: 2}, stats.ByPriority)
	assert.Empty(t, stats.UserTickets)
	assert.NotNil(t, stats.UserTickets)
}

func TestGetStatsIncludesAssignedTickets(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		assignee := "agent-1"
		if i%4 == 0 {
			assignee = "agent-2"
		}
		require.NoError(t, repo.Create(context.Background(), &domain.Ticket{
			TicketID:   fmt.Sprintf("TKT-%08d", i),
			Subject:    "Assigned ticket",
			Status:     domain.TicketStatusInProgress,
			Priority:   domain.TicketPriorityMedium,
			AssignedTo: assignee,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	svc := NewTicketQueryService(repo, nil)

	stats, err := svc.GetStats(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Len(t, stats.UserTickets, 9)
	assert.Equal(t, "TKT-00000011", stats.UserTickets[0].TicketID)

	for _, placeholder := range []string{"undefined", "null", "  "} {
		stats, err := svc.GetStats(context.Background(), placeholder)
		require.NoError(t, err)
		assert.Empty(t, stats.UserTickets, placeholder)
	}
}

func TestGetStatsUserTicketsLimitedToTen(t *testing.T) {
	repo := &mockTicketRepository{}
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("List", mock.Anything, repository.TicketFilter{AssignedTo: "agent-3"}, repository.ListOptions{
		Limit:  userTicketsLimit,
		Fields: summaryFields,
	}).Return([]domain.Ticket{{TicketID: "TKT-11111111"}}, nil)
	svc := NewTicketQueryService(repo, nil)

	stats, err := svc.GetStats(context.Background(), "agent-3")
	require.NoError(t, err)
	require.Len(t, stats.UserTickets, 1)
	repo.AssertNumberOfCalls(t, "Count", 9)
	repo.AssertExpectations(t)
}

func TestQueryFailuresArePersistenceErrors(t *testing.T) {
	repo := &mockTicketRepository{}
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), errors.New("server selection timeout"))
	repo.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("server selection timeout"))
	svc := NewTicketQueryService(repo, nil)

	_, err := svc.GetStats(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, "PERSISTENCE_ERROR"))

	_, err = svc.ListTickets(context.Background(), TicketListQuery{})
	assert.True(t, apperrors.IsCode(err, "PERSISTENCE_ERROR"))
}
