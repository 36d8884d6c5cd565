package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopdesk/ticket-service/internal/domain"
)

const uniqueViolation = "23505"

const selectTicketColumns = `id::text, version, document`

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository stores ticket documents as JSONB rows.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

func (r *postgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.Version = 1

	document, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	const query = `
        INSERT INTO tickets (ticket_id, version, created_at, document)
        VALUES ($1, 1, $2, $3::jsonb)
        RETURNING id::text`
	if err := r.pool.QueryRow(ctx, query, ticket.TicketID, ticket.CreatedAt, string(document)).Scan(&ticket.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create %s: %w", ticket.TicketID, ErrDuplicateKey)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + selectTicketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresTicketRepository) List(ctx context.Context, filter TicketFilter, opts ListOptions) ([]domain.Ticket, error) {
	where, args := postgresWhere(filter)
	limit := "ALL"
	if opts.Limit > 0 {
		limit = fmt.Sprintf("%d", opts.Limit)
	}
	offset := opts.Skip
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %d`,
		selectTicketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *postgresTicketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	where, args := postgresWhere(filter)
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return total, nil
}

func (r *postgresTicketRepository) UpdateByID(ctx context.Context, id string, patch domain.TicketPatch, allowed ...domain.TicketStatus) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	fields := map[string]any{}
	encoded, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	fields["updatedAt"] = time.Now().UTC()
	merge, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	args := []any{string(merge), id}
	guard := ""
	if len(allowed) > 0 {
		statuses := make([]string, 0, len(allowed))
		for _, status := range allowed {
			statuses = append(statuses, string(status))
		}
		args = append(args, statuses)
		guard = " AND document->>'status' = ANY($3)"
	}
	query := `
        UPDATE tickets SET document = document || $1::jsonb, version = version + 1
        WHERE id=$2` + guard + `
        RETURNING ` + selectTicketColumns
	updated, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if !errors.Is(err, ErrNotFound) || len(allowed) == 0 {
		return updated, err
	}
	if err := r.requireExists(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrStatusMismatch
}

func (r *postgresTicketRepository) Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticket.ID); err != nil {
		return nil, ErrNotFound
	}
	document, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	query := `
        UPDATE tickets SET document = $1::jsonb, version = version + 1
        WHERE id=$2 AND version=$3
        RETURNING ` + selectTicketColumns
	saved, err := scanTicket(r.pool.QueryRow(ctx, query, string(document), ticket.ID, ticket.Version))
	if !errors.Is(err, ErrNotFound) {
		return saved, err
	}

	if err := r.requireExists(ctx, ticket.ID); err != nil {
		return nil, err
	}
	return nil, ErrVersionConflict
}

func (r *postgresTicketRepository) requireExists(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("lookup ticket: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (r *postgresTicketRepository) DeleteByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `DELETE FROM tickets WHERE id=$1 RETURNING ` + selectTicketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresTicketRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func postgresWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	addEquals := func(expr, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", expr, len(args)))
	}
	addEquals("document->>'status'", string(filter.Status))
	addEquals("document->>'priority'", string(filter.Priority))
	addEquals("document->>'category'", string(filter.Category))
	addEquals("document->>'assignedTo'", filter.AssignedTo)

	if term := filter.searchTerm(); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(document->>'subject' ILIKE %[1]s OR ticket_id ILIKE %[1]s OR document->>'customerName' ILIKE %[1]s OR document->>'customerEmail' ILIKE %[1]s)", p))
	}
	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		id       string
		version  int64
		document []byte
	)
	if err := row.Scan(&id, &version, &document); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(document, &ticket); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	ticket.ID = id
	ticket.Version = version
	if ticket.Comments == nil {
		ticket.Comments = []domain.Comment{}
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}
	return &ticket, nil
}
