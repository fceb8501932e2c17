package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/birriaclub/pos/internal/order"
)

type TicketRepo struct {
	collection *mongo.Collection
}

func NewTicketRepo(db *mongo.Database) *TicketRepo {
	return &TicketRepo{
		collection: db.Collection("tickets"),
	}
}

func (r *TicketRepo) Create(ctx context.Context, ticket *order.Ticket) error {
	if ticket == nil {
		return fmt.Errorf("ticket is nil")
	}

	if _, err := r.collection.InsertOne(ctx, ticket); err != nil {
		return fmt.Errorf("cannot create ticket: %w", err)
	}

	return nil
}

func (r *TicketRepo) Get(ctx context.Context, id uuid.UUID) (*order.Ticket, error) {
	var ticket order.Ticket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *TicketRepo) List(ctx context.Context) ([]*order.Ticket, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Ticket
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tickets: %w", err)
	}

	return result, nil
}

func (r *TicketRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*order.Ticket, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"table_id": tableID})
	if err != nil {
		return nil, fmt.Errorf("cannot list tickets by table: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Ticket
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tickets: %w", err)
	}

	return result, nil
}

func (r *TicketRepo) ListByStatus(ctx context.Context, status string) ([]*order.Ticket, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("cannot list tickets by status: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Ticket
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tickets: %w", err)
	}

	return result, nil
}

func (r *TicketRepo) Save(ctx context.Context, ticket *order.Ticket) error {
	if ticket == nil {
		return fmt.Errorf("ticket is nil")
	}

	filter := bson.M{"_id": ticket.ID}
	update := bson.M{"$set": ticket}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update ticket: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("ticket not found")
	}

	return nil
}

// ReplaceItems swaps the stored item list wholesale. Edits arrive as the
// full new sequence, not as a diff.
func (r *TicketRepo) ReplaceItems(ctx context.Context, id uuid.UUID, items []order.ItemSnapshot, total string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"items":      items,
		"total":      total,
		"updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot replace ticket items: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("ticket not found")
	}

	return nil
}

func (r *TicketRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete ticket: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("ticket not found")
	}

	return nil
}
