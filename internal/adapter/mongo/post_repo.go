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

const postCollectionName = "posts"

type postRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.PostRepository {
	return &postRepository{
		collection: client.Database(cfg.Database).Collection(postCollectionName),
	}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) (string, error) {
	post.ID = primitive.NewObjectID().Hex()
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, postID string) (*entity.Post, error) {
	var post entity.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID %s: %w", postID, err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, params repository.ListPostsParams) ([]entity.Post, int64, error) {
	filter := bson.M{}
	if params.AuthorID != "" {
		filter["author_id"] = params.AuthorID
	}
	if params.LovedBy != "" {
		filter["loves"] = params.LovedBy
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params.PageSize > 0 {
		if params.Page <= 0 {
			params.Page = 1
		}
		findOptions.SetSkip(int64((params.Page - 1) * params.PageSize))
		findOptions.SetLimit(int64(params.PageSize))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []entity.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode listed posts: %w", err)
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return posts, totalCount, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	post.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", post.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, postID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postID, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
