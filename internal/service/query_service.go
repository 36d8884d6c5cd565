package service

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/repository"
	apperrors "github.com/shopdesk/ticket-service/pkg/util/errorutil"
)

const (
	defaultPage      = 1
	defaultPageLimit = 20
	userTicketsLimit = 10
)

// summaryFields is the projection used for a support user's own tickets.
var summaryFields = []string{"ticketId", "subject", "status", "priority", "category", "customerName", "createdAt"}

// TicketListQuery describes listing filters and paging.
type TicketListQuery struct {
	Status     domain.TicketStatus
	Priority   domain.TicketPriority
	Category   domain.TicketCategory
	AssignedTo string
	Search     string
	Page       int
	Limit      int
}

// Pagination describes the page returned by ListTickets.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// TicketPage is one page of tickets plus paging metadata.
type TicketPage struct {
	Tickets    []domain.Ticket
	Pagination Pagination
}

// StatusCounts tallies tickets per status.
type StatusCounts struct {
	Open       int64 `json:"open"`
	InProgress int64 `json:"inProgress"`
	Pending    int64 `json:"pending"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
}

// PriorityCounts tallies tickets per priority. Urgent tickets are not
// broken out.
type PriorityCounts struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

// TicketStats is the dashboard-wide overview.
type TicketStats struct {
	Total       int64                  `json:"total"`
	ByStatus    StatusCounts           `json:"byStatus"`
	ByPriority  PriorityCounts         `json:"byPriority"`
	UserTickets []domain.TicketSummary `json:"userTickets"`
}

// TicketQueryService serves read-only listing and statistics.
type TicketQueryService struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// NewTicketQueryService constructs the service.
func NewTicketQueryService(tickets repository.TicketRepository, logger *zap.Logger) *TicketQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketQueryService{tickets: tickets, logger: logger}
}

// ListTickets returns the requested page, newest first.
func (s *TicketQueryService) ListTickets(ctx context.Context, query TicketListQuery) (*TicketPage, error) {
	page := query.Page
	if page <= 0 {
		page = defaultPage
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	filter := repository.TicketFilter{
		Status:     query.Status,
		Priority:   query.Priority,
		Category:   query.Category,
		AssignedTo: strings.TrimSpace(query.AssignedTo),
		Search:     query.Search,
	}
	tickets, err := s.tickets.List(ctx, filter, repository.ListOptions{
		Skip:  pageOffset(page, limit),
		Limit: int64(limit),
	})
	if err != nil {
		return nil, s.fail("list", err)
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, s.fail("list", err)
	}

	return &TicketPage{
		Tickets: tickets,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pageCount(total, limit),
		},
	}, nil
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt64.
func pageOffset(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

func pageCount(total int64, limit int) int64 {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}

// GetStats counts every ticket regardless of caller. When userID names a
// support user, their ten newest assigned tickets are included.
func (s *TicketQueryService) GetStats(ctx context.Context, userID string) (*TicketStats, error) {
	stats := &TicketStats{UserTickets: []domain.TicketSummary{}}

	counts := []struct {
		filter repository.TicketFilter
		dst    *int64
	}{
		{repository.TicketFilter{}, &stats.Total},
		{repository.TicketFilter{Status: domain.TicketStatusOpen}, &stats.ByStatus.Open},
		{repository.TicketFilter{Status: domain.TicketStatusInProgress}, &stats.ByStatus.InProgress},
		{repository.TicketFilter{Status: domain.TicketStatusPending}, &stats.ByStatus.Pending},
		{repository.TicketFilter{Status: domain.TicketStatusResolved}, &stats.ByStatus.Resolved},
		{repository.TicketFilter{Status: domain.TicketStatusClosed}, &stats.ByStatus.Closed},
		{repository.TicketFilter{Priority: domain.TicketPriorityHigh}, &stats.ByPriority.High},
		{repository.TicketFilter{Priority: domain.TicketPriorityMedium}, &stats.ByPriority.Medium},
		{repository.TicketFilter{Priority: domain.TicketPriorityLow}, &stats.ByPriority.Low},
	}
	for _, c := range counts {
		total, err := s.tickets.Count(ctx, c.filter)
		if err != nil {
			return nil, s.fail("stats", err)
		}
		*c.dst = total
	}

	if userID = strings.TrimSpace(userID); hasUserID(userID) {
		tickets, err := s.tickets.List(ctx, repository.TicketFilter{AssignedTo: userID}, repository.ListOptions{
			Limit:  userTicketsLimit,
			Fields: summaryFields,
		})
		if err != nil {
			return nil, s.fail("stats", err)
		}
		for i := range tickets {
			stats.UserTickets = append(stats.UserTickets, tickets[i].Summary())
		}
	}

	s.logger.Info("ticket stats computed",
		zap.Int64("total", stats.Total),
		zap.Int64("open", stats.ByStatus.Open),
		zap.Int64("in_progress", stats.ByStatus.InProgress),
		zap.Int("user_tickets", len(stats.UserTickets)))
	return stats, nil
}

// hasUserID filters out the placeholder strings browsers send for unset values.
func hasUserID(userID string) bool {
	return userID != "" && userID != "undefined" && userID != "null"
}

func (s *TicketQueryService) fail(op string, err error) error {
	err = apperrors.NewPersistenceError("ticket store unavailable", err)
	s.logger.Error("ticket query failed", zap.String("operation", op), zap.Error(err))
	return err
}
