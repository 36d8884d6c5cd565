package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/events"
	"github.com/shopdesk/ticket-service/internal/repository"
	apperrors "github.com/shopdesk/ticket-service/pkg/util/errorutil"
)

const (
	// maxWriteAttempts bounds the optimistic read-modify-write loop.
	maxWriteAttempts = 3
	// maxKeyAttempts bounds ticketId regeneration on collisions.
	maxKeyAttempts = 3
)

// assignableStatuses are the states an assignment may start from.
var assignableStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusPending,
	domain.TicketStatusInProgress,
}

// TicketService applies lifecycle rules to tickets.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject       string                `json:"subject" validate:"required,min=5,max=200"`
	Description   string                `json:"description" validate:"required,min=10"`
	Category      domain.TicketCategory `json:"category" validate:"required,oneof=technical billing general feature order account"`
	Priority      domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CustomerName  string                `json:"customerName" validate:"required"`
	CustomerEmail string                `json:"customerEmail" validate:"required,email"`
	CustomerID    string                `json:"customerId"`
	Attachments   []domain.Attachment   `json:"attachments"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// CreateTicket validates the input and stores a new open ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput, actor *domain.Identity) (*domain.Ticket, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	input.Description = strings.TrimSpace(input.Description)
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	input.CustomerID = strings.TrimSpace(input.CustomerID)
	if violations := domain.Validate(input); len(violations) > 0 {
		return nil, s.fail("create", "", validationError("Ticket validation failed", violations))
	}

	ticket := &domain.Ticket{
		Subject:       input.Subject,
		Description:   input.Description,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        domain.TicketStatusOpen,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerID:    input.CustomerID,
		Comments:      []domain.Comment{},
		Attachments:   input.Attachments,
		CreatedAt:     s.now(),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}

	var err error
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		ticket.TicketID = generateTicketKey()
		err = s.tickets.Create(ctx, ticket)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
		s.logger.Warn("ticket key collision", zap.String("ticket_id", ticket.TicketID), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, s.fail("create", ticket.TicketID, err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.TicketID), zap.String("id", ticket.ID))
	s.publishEvent(ctx, ticket, actor, events.EventTicketCreated, events.TicketCreatedPayload{
		Category:      ticket.Category,
		Priority:      ticket.Priority,
		Subject:       ticket.Subject,
		CustomerEmail: ticket.CustomerEmail,
	})
	return ticket, nil
}

// GetTicket loads a ticket by store id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", id, err)
	}
	return ticket, nil
}

// AdminUpdateTicket overwrites the supplied fields without consulting the
// status state machine. It is the administrative escape hatch behind
// PUT /api/tickets/:id; regular lifecycle moves go through AssignTicket and
// ResolveTicket.
func (s *TicketService) AdminUpdateTicket(ctx context.Context, id string, patch domain.TicketPatch, actor *domain.Identity) (*domain.Ticket, error) {
	if violations := domain.Validate(patch); len(violations) > 0 {
		return nil, s.fail("update", id, validationError("Ticket validation failed", violations))
	}
	ticket, err := s.tickets.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, s.fail("update", id, err)
	}

	s.logger.Info("ticket updated", zap.String("ticket_id", ticket.TicketID), zap.Strings("fields", patchFields(patch)))
	s.publishEvent(ctx, ticket, actor, events.EventTicketUpdated, events.TicketUpdatedPayload{
		Fields: patchFields(patch),
		Status: ticket.Status,
	})
	return ticket, nil
}

// AssignTicket hands the ticket to a support user and moves it to in-progress.
func (s *TicketService) AssignTicket(ctx context.Context, id, assignedTo, assignedToName string, actor *domain.Identity) (*domain.Ticket, error) {
	assignedTo = strings.TrimSpace(assignedTo)
	if assignedTo == "" {
		return nil, s.fail("assign", id, apperrors.NewBadRequest("Assigned user ID is required", nil))
	}
	assignedToName = strings.TrimSpace(assignedToName)
	status := domain.TicketStatusInProgress
	patch := domain.TicketPatch{
		AssignedTo:     &assignedTo,
		AssignedToName: &assignedToName,
		Status:         &status,
	}

	ticket, err := s.tickets.UpdateByID(ctx, id, patch, assignableStatuses...)
	if errors.Is(err, repository.ErrStatusMismatch) {
		err = apperrors.NewValidationError("Ticket cannot be assigned in its current status", map[string]any{"id": id})
	}
	if err != nil {
		return nil, s.fail("assign", id, err)
	}

	assignee := assignedToName
	if assignee == "" {
		assignee = assignedTo
	}
	s.logger.Info("ticket assigned", zap.String("ticket_id", ticket.TicketID), zap.String("assignee", assignee))
	s.publishEvent(ctx, ticket, actor, events.EventTicketAssigned, events.TicketAssignedPayload{
		AssignedTo:     assignedTo,
		AssignedToName: assignedToName,
	})
	return ticket, nil
}

// ResolveTicket marks the ticket resolved. resolvedAt keeps the time of the
// first resolution, so repeating the call only refreshes the resolution text.
func (s *TicketService) ResolveTicket(ctx context.Context, id, resolution string, actor *domain.Identity) (*domain.Ticket, error) {
	resolution = strings.TrimSpace(resolution)
	ticket, err := s.mutate(ctx, "resolve", id, func(t *domain.Ticket, now time.Time) error {
		if t.Status.IsTerminal() {
			return apperrors.NewValidationError("Closed tickets cannot be resolved", map[string]any{"id": id})
		}
		t.Status = domain.TicketStatusResolved
		t.Resolution = resolution
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket resolved", zap.String("ticket_id", ticket.TicketID))
	s.publishEvent(ctx, ticket, actor, events.EventTicketResolved, events.TicketResolvedPayload{
		Resolution: ticket.Resolution,
		ResolvedAt: *ticket.ResolvedAt,
	})
	return ticket, nil
}

// AddComment appends a comment authored by actor, or by the system actor
// when the request carries no identity.
func (s *TicketService) AddComment(ctx context.Context, id string, actor *domain.Identity, message string, isInternal bool) (*domain.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, s.fail("comment", id, apperrors.NewValidationError("Comment message is required", nil))
	}
	author := commentAuthor(actor)

	ticket, err := s.mutate(ctx, "comment", id, func(t *domain.Ticket, now time.Time) error {
		if n := len(t.Comments); n > 0 && now.Before(t.Comments[n-1].CreatedAt) {
			now = t.Comments[n-1].CreatedAt
		}
		t.Comments = append(t.Comments, domain.Comment{
			UserID:     author.UserID,
			UserName:   author.Name,
			UserRole:   author.Role,
			Message:    message,
			IsInternal: isInternal,
			CreatedAt:  now,
		})
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket comment added",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("author", author.UserID),
		zap.Bool("internal", isInternal))
	s.publishEvent(ctx, ticket, &author, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
		AuthorID:       author.UserID,
		AuthorRole:     author.Role,
		IsInternal:     isInternal,
		MessagePreview: stringPreview(message, 120),
	})
	return ticket, nil
}

// DeleteTicket removes the ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, id string, actor *domain.Identity) (*domain.Ticket, error) {
	ticket, err := s.tickets.DeleteByID(ctx, id)
	if err != nil {
		return nil, s.fail("delete", id, err)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", ticket.TicketID))
	s.publishEvent(ctx, ticket, actor, events.EventTicketDeleted, nil)
	return ticket, nil
}

// mutate runs a versioned load-modify-replace cycle, retrying when another
// writer got there first.
func (s *TicketService) mutate(ctx context.Context, op, id string, change func(*domain.Ticket, time.Time) error) (*domain.Ticket, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, id)
		if err != nil {
			return nil, s.fail(op, id, err)
		}
		if err := change(ticket, s.now()); err != nil {
			return nil, s.fail(op, id, err)
		}
		saved, err := s.tickets.Replace(ctx, ticket)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, s.fail(op, id, err)
		}
		s.logger.Debug("ticket write conflict, retrying",
			zap.String("operation", op),
			zap.String("id", id),
			zap.Int("attempt", attempt))
	}
	return nil, s.fail(op, id, apperrors.NewConflict("Ticket was modified concurrently, please retry", map[string]any{"id": id}))
}

// fail translates store errors into domain errors and logs them with the
// operation and ticket identifier.
func (s *TicketService) fail(op, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = apperrors.NewNotFound("Ticket", map[string]any{"id": id})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		err = apperrors.NewPersistenceError("ticket store request timed out", err)
	default:
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			err = apperrors.NewPersistenceError("ticket store unavailable", err)
		}
	}

	fields := []zap.Field{zap.String("operation", op), zap.String("ticket_id", id), zap.Error(err)}
	if apperrors.ToDomainError(err).HTTPStatus >= 500 && !apperrors.IsValidation(err) {
		s.logger.Error("ticket operation failed", fields...)
	} else {
		s.logger.Info("ticket operation rejected", fields...)
	}
	return err
}

func (s *TicketService) publishEvent(ctx context.Context, ticket *domain.Ticket, actor *domain.Identity, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	author := commentAuthor(actor)
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		TicketKey: ticket.TicketID,
		Actor: events.Actor{
			UserID: author.UserID,
			Name:   author.Name,
			Role:   author.Role,
		},
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("ticket event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticket.TicketID),
			zap.Error(err))
	}
}

func commentAuthor(actor *domain.Identity) domain.Identity {
	author := domain.SystemIdentity
	if actor == nil {
		return author
	}
	if actor.UserID != "" {
		author.UserID = actor.UserID
	}
	if actor.Name != "" {
		author.Name = actor.Name
	}
	if actor.Role != "" {
		author.Role = actor.Role
	}
	return author
}

func validationError(message string, violations []domain.FieldViolation) error {
	return apperrors.NewValidationError(message, map[string]any{"fields": violations})
}

func generateTicketKey() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func patchFields(patch domain.TicketPatch) []string {
	fields := []string{}
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(patch.Subject != nil, "subject")
	add(patch.Description != nil, "description")
	add(patch.Category != nil, "category")
	add(patch.Priority != nil, "priority")
	add(patch.Status != nil, "status")
	add(patch.CustomerName != nil, "customerName")
	add(patch.CustomerEmail != nil, "customerEmail")
	add(patch.CustomerID != nil, "customerId")
	add(patch.AssignedTo != nil, "assignedTo")
	add(patch.AssignedToName != nil, "assignedToName")
	add(patch.Resolution != nil, "resolution")
	return fields
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
