package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const engagementCollectionName = "engagement_records"

type engagementRepository struct {
	collection *mongo.Collection
}

func NewEngagementRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.EngagementRepository {
	return &engagementRepository{
		collection: client.Database(cfg.Database).Collection(engagementCollectionName),
	}
}

func (r *engagementRepository) GetByUserAndFeature(ctx context.Context, userID, feature string) (*entity.EngagementRecord, error) {
	var record entity.EngagementRecord
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "feature": feature}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get engagement record: %w", err)
	}
	return &record, nil
}

// Upsert keeps one record per (user, feature). FindOneAndUpdate with upsert
// mirrors the write pattern the tracking endpoint needs: create on first
// interaction, merge on later ones.
func (r *engagementRepository) Upsert(ctx context.Context, userID, feature string, update repository.EngagementUpdate) (*entity.EngagementRecord, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID, "feature": feature}

	set := bson.M{
		"device_type": update.DeviceType,
		"updated_at":  now,
	}
	if update.HasOpenedModal {
		set["has_opened_modal"] = true
	}
	if update.IsDeclined {
		set["is_declined"] = true
	}
	if update.IsConverted {
		set["selected_plan"] = update.SelectedPlan
		set["is_converted"] = true
		set["is_declined"] = false
	}

	mongoUpdate := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"feature":    feature,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var record entity.EngagementRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, mongoUpdate, opts).Decode(&record)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert engagement record: %w", err)
	}
	return &record, nil
}
