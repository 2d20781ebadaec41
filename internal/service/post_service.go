package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/repository"
)

type UpdatePostInput struct {
	Captions  *string
	ImageURLs []string
}

type PostService interface {
	Create(ctx context.Context, authorID, captions string, imageURLs []string) (*entity.Post, error)
	GetByID(ctx context.Context, postID string) (*entity.Post, error)
	List(ctx context.Context, params repository.ListPostsParams) ([]entity.Post, int64, error)
	Update(ctx context.Context, postID, actingUserID string, input UpdatePostInput) (*entity.Post, error)
	Delete(ctx context.Context, postID, actingUserID string) error
	AddComment(ctx context.Context, postID, authorID, text string) (*entity.Comment, error)
	ToggleLove(ctx context.Context, postID, userID string) (bool, error)
}

type postService struct {
	repo      repository.PostRepository
	photos    PhotoStorage
	log       logger.Logger
	opTimeout time.Duration
}

func NewPostService(repo repository.PostRepository, photos PhotoStorage, log logger.Logger, opTimeout time.Duration) PostService {
	return &postService{repo: repo, photos: photos, log: log, opTimeout: opTimeout}
}

func (s *postService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *postService) Create(ctx context.Context, authorID, captions string, imageURLs []string) (*entity.Post, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := entity.NewPost(authorID, captions, imageURLs)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	post.ID = id

	s.log.Infof("Post %s created by %s", id, authorID)
	return post, nil
}

func (s *postService) GetByID(ctx context.Context, postID string) (*entity.Post, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, params repository.ListPostsParams) ([]entity.Post, int64, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	posts, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, mapStoreErr(err)
	}
	return posts, total, nil
}

func (s *postService) Update(ctx context.Context, postID, actingUserID string, input UpdatePostInput) (*entity.Post, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if post.AuthorID != actingUserID {
		return nil, fmt.Errorf("%w: only the author can update a post", entity.ErrForbidden)
	}

	if input.Captions != nil {
		if *input.Captions == "" {
			return nil, fmt.Errorf("%w: captions cannot be empty", entity.ErrValidation)
		}
		post.Captions = *input.Captions
	}
	if input.ImageURLs != nil {
		if len(input.ImageURLs) == 0 {
			return nil, fmt.Errorf("%w: a post must have at least one image", entity.ErrValidation)
		}
		post.ImageURLs = input.ImageURLs
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, mapStoreErr(err)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, postID, actingUserID string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return mapStoreErr(err)
	}
	if post.AuthorID != actingUserID {
		return fmt.Errorf("%w: only the author can delete a post", entity.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (s *postService) AddComment(ctx context.Context, postID, authorID, text string) (*entity.Comment, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	comment, err := post.AddComment(authorID, text)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, mapStoreErr(err)
	}
	return comment, nil
}

func (s *postService) ToggleLove(ctx context.Context, postID, userID string) (bool, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return false, mapStoreErr(err)
	}

	loved := post.ToggleLove(userID)
	if err := s.repo.Update(ctx, post); err != nil {
		return false, mapStoreErr(err)
	}
	return loved, nil
}
