package commands

import (
	"context"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// ResetDB drops the pos database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the pos_tickets database!")
	logger.Infof("⚠️  This action cannot be undone!")

	client, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database("pos_tickets")
	result := db.RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		logger.Infof("⚠️  Failed to drop database pos_tickets (may not exist): %v", result.Err())
		return nil
	}

	logger.Info("Database dropped", "database", "pos_tickets")
	return nil
}
