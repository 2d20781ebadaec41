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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "listings"

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ListingRepository {
	return &listingRepository{
		collection: client.Database(cfg.Database).Collection(listingCollectionName),
	}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	listing.ID = primitive.NewObjectID().Hex()
	if _, err := r.collection.InsertOne(ctx, listing); err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return listing.ID, nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	var listing entity.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, params repository.ListListingsParams) (*repository.ListListingsResult, error) {
	filter := bson.M{}
	if params.Species != "" {
		filter["species"] = params.Species
	}
	if params.OwnerID != "" {
		filter["owner_id"] = params.OwnerID
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	findOptions := options.Find()
	if params.PageSize > 0 {
		if params.Page <= 0 {
			params.Page = 1
		}
		findOptions.SetSkip(int64((params.Page - 1) * params.PageSize))
		findOptions.SetLimit(int64(params.PageSize))
	}
	if params.SortBy != "" {
		sortOrder := 1
		if params.SortOrder == "desc" {
			sortOrder = -1
		}
		findOptions.SetSort(bson.D{{Key: params.SortBy, Value: sortOrder}})
	} else {
		findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []entity.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listed listings: %w", err)
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	return &repository.ListListingsResult{
		Listings:   listings,
		TotalCount: totalCount,
	}, nil
}

func (r *listingRepository) DistinctSpecies(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "species", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct species: %w", err)
	}
	species := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			species = append(species, s)
		}
	}
	return species, nil
}

// ReplaceVersioned persists the whole aggregate guarded by the version the
// caller read. MatchedCount == 0 means either the document is gone or
// another writer got there first; a re-read disambiguates the two.
func (r *listingRepository) ReplaceVersioned(ctx context.Context, listing *entity.Listing, expectedVersion int) error {
	filter := bson.M{
		"_id":     listing.ID,
		"version": expectedVersion,
	}

	replacement := *listing
	replacement.Version = expectedVersion + 1
	replacement.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, filter, &replacement)
	if err != nil {
		return fmt.Errorf("failed to replace listing %s: %w", listing.ID, err)
	}

	if result.MatchedCount == 0 {
		var existing entity.Listing
		errFind := r.collection.FindOne(ctx, bson.M{"_id": listing.ID}).Decode(&existing)
		if errors.Is(errFind, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		if errFind == nil && existing.Version != expectedVersion {
			return repository.ErrOptimisticLock
		}
		return repository.ErrUpdateFailed
	}

	listing.Version = replacement.Version
	listing.UpdatedAt = replacement.UpdatedAt
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, listingID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": listingID})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", listingID, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
