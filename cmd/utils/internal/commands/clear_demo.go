package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// ClearDemo removes all demo tickets from the pos database
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database("pos_tickets")

	tickets := db.Collection("tickets")
	result, err := tickets.DeleteMany(ctx, bson.M{"created_by": "demo-seed"})
	if err != nil {
		return fmt.Errorf("delete demo tickets: %w", err)
	}
	logger.Info("Deleted demo tickets", "count", result.DeletedCount)

	seeds := db.Collection("_seeds")
	if _, err := seeds.DeleteOne(ctx, bson.M{"_id": seedMarker}); err != nil {
		return fmt.Errorf("delete seed marker: %w", err)
	}

	return nil
}
