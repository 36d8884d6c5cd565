package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shopdesk/ticket-service/internal/domain"
)

const ticketsCollection = "tickets"

type ticketDocument struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty"`
	TicketID       string                `bson:"ticketId"`
	Subject        string                `bson:"subject"`
	Description    string                `bson:"description"`
	Category       domain.TicketCategory `bson:"category"`
	Priority       domain.TicketPriority `bson:"priority"`
	Status         domain.TicketStatus   `bson:"status"`
	CustomerName   string                `bson:"customerName"`
	CustomerEmail  string                `bson:"customerEmail"`
	CustomerID     string                `bson:"customerId,omitempty"`
	AssignedTo     string                `bson:"assignedTo,omitempty"`
	AssignedToName string                `bson:"assignedToName,omitempty"`
	Resolution     string                `bson:"resolution,omitempty"`
	Comments       []domain.Comment      `bson:"comments"`
	Attachments    []domain.Attachment   `bson:"attachments"`
	CreatedAt      time.Time             `bson:"createdAt"`
	UpdatedAt      time.Time             `bson:"updatedAt"`
	ResolvedAt     *time.Time            `bson:"resolvedAt,omitempty"`
	Version        int64                 `bson:"version"`
}

type mongoTicketRepository struct {
	col *mongo.Collection
}

// NewMongoTicketRepository builds a repository over the tickets collection.
func NewMongoTicketRepository(db *mongo.Database) TicketRepository {
	return &mongoTicketRepository{col: db.Collection(ticketsCollection)}
}

// EnsureMongoIndexes creates the unique ticketId index and the listing index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ticketsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticketId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create ticket indexes: %w", err)
	}
	return nil
}

func (r *mongoTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.Version = 1

	doc := toTicketDocument(ticket)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create %s: %w", ticket.TicketID, ErrDuplicateKey)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	ticket.ID = doc.ID.Hex()
	return nil
}

func (r *mongoTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc ticketDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	return doc.toDomain(), nil
}

func (r *mongoTicketRepository) List(ctx context.Context, filter TicketFilter, opts ListOptions) ([]domain.Ticket, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Fields) > 0 {
		projection := bson.D{}
		for _, field := range opts.Fields {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
		findOpts.SetProjection(projection)
	}

	cursor, err := r.col.Find(ctx, mongoFilter(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find tickets: %w", err)
	}
	var docs []ticketDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	result := make([]domain.Ticket, 0, len(docs))
	for i := range docs {
		result = append(result, *docs[i].toDomain())
	}
	return result, nil
}

func (r *mongoTicketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	total, err := r.col.CountDocuments(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return total, nil
}

func (r *mongoTicketRepository) UpdateByID(ctx context.Context, id string, patch domain.TicketPatch, allowed ...domain.TicketStatus) (*domain.Ticket, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	filter := bson.M{"_id": oid}
	if len(allowed) > 0 {
		filter["status"] = bson.M{"$in": allowed}
	}
	update := bson.M{
		"$set": patchSet(patch, time.Now().UTC()),
		"$inc": bson.M{"version": 1},
	}
	var doc ticketDocument
	err = r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) || len(allowed) == 0 {
		return nil, translateMongoError(err)
	}
	if err := r.requireExists(ctx, oid); err != nil {
		return nil, err
	}
	return nil, ErrStatusMismatch
}

func (r *mongoTicketRepository) Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	oid, err := primitive.ObjectIDFromHex(ticket.ID)
	if err != nil {
		return nil, ErrNotFound
	}
	doc := toTicketDocument(ticket)
	doc.ID = oid
	doc.Version = ticket.Version + 1

	var saved ticketDocument
	err = r.col.FindOneAndReplace(ctx, bson.M{"_id": oid, "version": ticket.Version}, doc,
		options.FindOneAndReplace().SetReturnDocument(options.After)).Decode(&saved)
	if err == nil {
		return saved.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("replace ticket: %w", err)
	}
	if err := r.requireExists(ctx, oid); err != nil {
		return nil, err
	}
	return nil, ErrVersionConflict
}

func (r *mongoTicketRepository) requireExists(ctx context.Context, oid primitive.ObjectID) error {
	exists, err := r.col.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("lookup ticket: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTicketRepository) DeleteByID(ctx context.Context, id string) (*domain.Ticket, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc ticketDocument
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	return doc.toDomain(), nil
}

func (r *mongoTicketRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func mongoFilter(filter TicketFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.AssignedTo != "" {
		query["assignedTo"] = filter.AssignedTo
	}
	if term := filter.searchTerm(); term != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"subject": pattern},
			bson.M{"ticketId": pattern},
			bson.M{"customerName": pattern},
			bson.M{"customerEmail": pattern},
		}
	}
	return query
}

func patchSet(patch domain.TicketPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if patch.Subject != nil {
		set["subject"] = *patch.Subject
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.CustomerName != nil {
		set["customerName"] = *patch.CustomerName
	}
	if patch.CustomerEmail != nil {
		set["customerEmail"] = *patch.CustomerEmail
	}
	if patch.CustomerID != nil {
		set["customerId"] = *patch.CustomerID
	}
	if patch.AssignedTo != nil {
		set["assignedTo"] = *patch.AssignedTo
	}
	if patch.AssignedToName != nil {
		set["assignedToName"] = *patch.AssignedToName
	}
	if patch.Resolution != nil {
		set["resolution"] = *patch.Resolution
	}
	return set
}

func translateMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("mongo: %w", err)
}

func toTicketDocument(t *domain.Ticket) ticketDocument {
	comments := t.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	attachments := t.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return ticketDocument{
		TicketID:       t.TicketID,
		Subject:        t.Subject,
		Description:    t.Description,
		Category:       t.Category,
		Priority:       t.Priority,
		Status:         t.Status,
		CustomerName:   t.CustomerName,
		CustomerEmail:  t.CustomerEmail,
		CustomerID:     t.CustomerID,
		AssignedTo:     t.AssignedTo,
		AssignedToName: t.AssignedToName,
		Resolution:     t.Resolution,
		Comments:       comments,
		Attachments:    attachments,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ResolvedAt,
		Version:        t.Version,
	}
}

func (d *ticketDocument) toDomain() *domain.Ticket {
	comments := d.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	attachments := d.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return &domain.Ticket{
		ID:             d.ID.Hex(),
		TicketID:       d.TicketID,
		Subject:        d.Subject,
		Description:    d.Description,
		Category:       d.Category,
		Priority:       d.Priority,
		Status:         d.Status,
		CustomerName:   d.CustomerName,
		CustomerEmail:  d.CustomerEmail,
		CustomerID:     d.CustomerID,
		AssignedTo:     d.AssignedTo,
		AssignedToName: d.AssignedToName,
		Resolution:     d.Resolution,
		Comments:       comments,
		Attachments:    attachments,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		ResolvedAt:     d.ResolvedAt,
		Version:        d.Version,
	}
}
