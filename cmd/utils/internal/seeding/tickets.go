package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeedTickets creates demo tickets covering the common capture flows:
// a dine-in table with variant lines, a by-weight line, and a takeaway
// ticket with a customer name.
func SeedTickets(ctx context.Context, db *mongo.Database) error {
	tickets := db.Collection("tickets")
	now := time.Now()

	tacoID := uuid.MustParse("a1b8f3de-7c24-4b5a-9f10-2d4e6c881101")
	consomeID := uuid.MustParse("a1b8f3de-7c24-4b5a-9f10-2d4e6c881102")
	carneID := uuid.MustParse("a1b8f3de-7c24-4b5a-9f10-2d4e6c881103")

	// Demo Scenario 1: dine-in table mid-meal
	ticket1 := bson.M{
		"_id":      uuid.MustParse("b2c9e4af-8d35-4c6b-a021-3e5f7d992201"),
		"table_id": uuid.MustParse("c3daf5b0-9e46-4d7c-b132-4f608eaa3301"),
		"status":   "open",
		"takeaway": false,
		"items": []bson.M{
			{
				"product_id": tacoID.String(),
				"name":       "Taco de birria",
				"unit_price": "3.00",
				"quantity":   "3",
				"variant":    "Maciza",
			},
			{
				"product_id": tacoID.String(),
				"name":       "Taco de birria",
				"unit_price": "3.00",
				"quantity":   "2",
				"variant":    "Surtida",
			},
			{
				"product_id": consomeID.String(),
				"name":       "Consome",
				"unit_price": "4.50",
				"quantity":   "2",
				"notes":      "sin cebolla",
			},
		},
		"total":      "24",
		"created_at": now.Add(-20 * time.Minute),
		"updated_at": now.Add(-5 * time.Minute),
		"created_by": "demo-seed",
		"updated_by": "demo-seed",
	}

	// Demo Scenario 2: takeaway order sold by weight
	ticket2 := bson.M{
		"_id":           uuid.MustParse("b2c9e4af-8d35-4c6b-a021-3e5f7d992202"),
		"table_id":      uuid.MustParse("c3daf5b0-9e46-4d7c-b132-4f608eaa3302"),
		"status":        "open",
		"takeaway":      true,
		"customer_name": "Luis",
		"items": []bson.M{
			{
				"product_id": carneID.String(),
				"name":       "Carne por kilo",
				"unit_price": "12.00",
				"quantity":   "0.5",
				"fractional": true,
			},
		},
		"total":      "6",
		"created_at": now.Add(-10 * time.Minute),
		"updated_at": now.Add(-10 * time.Minute),
		"created_by": "demo-seed",
		"updated_by": "demo-seed",
	}

	for _, ticket := range []bson.M{ticket1, ticket2} {
		_, err := tickets.UpdateOne(
			ctx,
			bson.M{"_id": ticket["_id"]},
			bson.M{"$setOnInsert": ticket},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("cannot create demo ticket: %w", err)
		}
	}

	return nil
}
