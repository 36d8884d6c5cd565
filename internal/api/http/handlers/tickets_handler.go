package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/shopdesk/ticket-service/internal/api/dto"
	"github.com/shopdesk/ticket-service/internal/auth"
	"github.com/shopdesk/ticket-service/internal/domain"
	"github.com/shopdesk/ticket-service/internal/service"
	apperrors "github.com/shopdesk/ticket-service/pkg/util/errorutil"
)

// TicketsHandler serves the /api/tickets endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	queries *service.TicketQueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, queries *service.TicketQueryService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, queries: queries}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query := service.TicketListQuery{
		Status:     domain.TicketStatus(c.Query("status")),
		Priority:   domain.TicketPriority(c.Query("priority")),
		Category:   domain.TicketCategory(c.Query("category")),
		AssignedTo: c.Query("assignedTo"),
		Search:     c.Query("search"),
		Page:       parseInt(c.Query("page"), 1),
		Limit:      parseInt(c.Query("limit"), 20),
	}
	page, err := h.queries.ListTickets(c.UserContext(), query)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to fetch tickets")
	}
	return c.JSON(dto.Envelope{
		Success:    true,
		Data:       page.Tickets,
		Pagination: &page.Pagination,
	})
}

// GetStats GET /api/tickets/stats.
func (h *TicketsHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.queries.GetStats(c.UserContext(), c.Query("userId"))
	if err != nil {
		return apperrors.WithMessage(err, "Failed to fetch ticket statistics")
	}
	return c.JSON(dto.Envelope{Success: true, Data: stats})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.WithMessage(err, "Failed to fetch ticket")
	}
	return c.JSON(dto.Envelope{Success: true, Data: ticket})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	identity, _ := auth.IdentityFromContext(c)
	ticket, err := h.tickets.CreateTicket(c.UserContext(), req.ToInput(), identity)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to create ticket")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{
		Success: true,
		Data:    ticket,
		Message: "Ticket created successfully",
	})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	identity, _ := auth.IdentityFromContext(c)
	ticket, err := h.tickets.AdminUpdateTicket(c.UserContext(), c.Params("id"), req, identity)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to update ticket")
	}
	return c.JSON(dto.Envelope{
		Success: true,
		Data:    ticket,
		Message: "Ticket updated successfully",
	})
}

// AssignTicket PATCH /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	identity, _ := auth.IdentityFromContext(c)
	ticket, err := h.tickets.AssignTicket(c.UserContext(), c.Params("id"), req.AssignedTo, req.AssignedToName, identity)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to assign ticket")
	}
	return c.JSON(dto.Envelope{
		Success: true,
		Data:    ticket,
		Message: "Ticket assigned successfully",
	})
}

// ResolveTicket PATCH /api/tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest("invalid payload", nil)
		}
	}
	identity, _ := auth.IdentityFromContext(c)
	ticket, err := h.tickets.ResolveTicket(c.UserContext(), c.Params("id"), req.Resolution, identity)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to resolve ticket")
	}
	return c.JSON(dto.Envelope{
		Success: true,
		Data:    ticket,
		Message: "Ticket resolved successfully",
	})
}

// AddComment POST /api/tickets/:id/comment.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	identity, _ := auth.IdentityFromContext(c)
	ticket, err := h.tickets.AddComment(c.UserContext(), c.Params("id"), identity, req.Message, req.IsInternal)
	if err != nil {
		return apperrors.WithMessage(err, "Failed to add comment")
	}
	return c.JSON(dto.Envelope{
		Success: true,
		Data:    ticket,
		Message: "Comment added successfully",
	})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	if _, err := h.tickets.DeleteTicket(c.UserContext(), c.Params("id"), identity); err != nil {
		return apperrors.WithMessage(err, "Failed to delete ticket")
	}
	return c.JSON(dto.Envelope{
		Success: true,
		Message: "Ticket deleted successfully",
	})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
