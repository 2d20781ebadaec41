package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ledgerCollectionName = "adoption_ledgers"

// ledgerDocument is one document per user holding the ordered listing IDs
// they adopted.
type ledgerDocument struct {
	UserID     string    `bson:"_id"`
	ListingIDs []string  `bson:"listing_ids"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type ledgerRepository struct {
	collection *mongo.Collection
}

func NewAdoptionLedgerRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.AdoptionLedgerRepository {
	return &ledgerRepository{
		collection: client.Database(cfg.Database).Collection(ledgerCollectionName),
	}
}

// Append is idempotent: $addToSet leaves the ledger untouched when the
// listing is already recorded, so the approval path may retry freely.
func (r *ledgerRepository) Append(ctx context.Context, userID, listingID string) error {
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$addToSet": bson.M{"listing_ids": listingID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to append listing %s to ledger of user %s: %w", listingID, userID, err)
	}
	return nil
}

func (r *ledgerRepository) List(ctx context.Context, userID string) ([]string, error) {
	var doc ledgerDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load ledger of user %s: %w", userID, err)
	}
	return doc.ListingIDs, nil
}

func (r *ledgerRepository) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	filter := bson.M{"_id": userID, "listing_ids": listingID}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger of user %s: %w", userID, err)
	}
	return count > 0, nil
}
