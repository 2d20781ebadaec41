package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/repository"
)

const testCacheTTL = time.Hour

func newListingService(repo *MockListingRepository, cache *MockListingCache) ListingService {
	var c repository.ListingCache
	if cache != nil {
		c = cache
	}
	return NewListingService(repo, c, nil, nil, NewNoOpLogger(), testCacheTTL, 0)
}

func TestListingService_Create_Success(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.OwnerID == testOwnerID && l.Status == entity.ListingStatusAvailable && l.Version == 1
	})).Return(testListingID, nil).Once()

	listing, err := svc.Create(context.Background(), testOwnerID, CreateListingInput{
		Name:        "Barsik",
		Species:     "cat",
		Breed:       "siberian",
		AdoptionFee: 50,
		ImageURLs:   []string{"http://img/1.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, testListingID, listing.ID)
	assert.Equal(t, "siberian", listing.Breed)
	mockRepo.AssertExpectations(t)
}

func TestListingService_Create_InvalidInput(t *testing.T) {
	svc := newListingService(new(MockListingRepository), nil)

	_, err := svc.Create(context.Background(), testOwnerID, CreateListingInput{Name: "Barsik"})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestListingService_GetByID_CacheHit(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockCache := new(MockListingCache)
	svc := newListingService(mockRepo, mockCache)

	cached := availableListing()
	mockCache.On("Get", mock.Anything, testListingID).Return(cached, nil).Once()

	listing, err := svc.GetByID(context.Background(), testListingID)

	require.NoError(t, err)
	assert.Equal(t, cached, listing)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestListingService_GetByID_CacheMissFillsCache(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockCache := new(MockListingCache)
	svc := newListingService(mockRepo, mockCache)

	stored := availableListing()
	mockCache.On("Get", mock.Anything, testListingID).Return(nil, repository.ErrCacheMiss).Once()
	mockRepo.On("GetByID", mock.Anything, testListingID).Return(stored, nil).Once()
	mockCache.On("Set", mock.Anything, stored, testCacheTTL).Return(nil).Once()

	listing, err := svc.GetByID(context.Background(), testListingID)

	require.NoError(t, err)
	assert.Equal(t, stored, listing)
	mockCache.AssertExpectations(t)
}

func TestListingService_Update_OnlyOwner(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	mockRepo.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()

	newName := "Murzik"
	_, err := svc.Update(context.Background(), testListingID, "intruder", UpdateListingInput{Name: &newName})

	assert.ErrorIs(t, err, entity.ErrForbidden)
	mockRepo.AssertNotCalled(t, "ReplaceVersioned", mock.Anything, mock.Anything, mock.Anything)
}

func TestListingService_Update_AdoptedListingFrozen(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	l := availableListing()
	l.Status = entity.ListingStatusAdopted
	mockRepo.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()

	newName := "Murzik"
	_, err := svc.Update(context.Background(), testListingID, testOwnerID, UpdateListingInput{Name: &newName})

	assert.ErrorIs(t, err, entity.ErrInvalidState)
	mockRepo.AssertNotCalled(t, "ReplaceVersioned", mock.Anything, mock.Anything, mock.Anything)
}

func TestListingService_Update_AdoptedListingDescriptionEditable(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	l := availableListing()
	l.Status = entity.ListingStatusAdopted
	mockRepo.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()
	mockRepo.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(updated *entity.Listing) bool {
		return updated.Description == "happily rehomed"
	}), 3).Return(nil).Once()

	// The free-text description stays editable after adoption; everything
	// else on the listing is frozen.
	newDesc := "happily rehomed"
	listing, err := svc.Update(context.Background(), testListingID, testOwnerID, UpdateListingInput{Description: &newDesc})

	require.NoError(t, err)
	assert.Equal(t, "happily rehomed", listing.Description)
	mockRepo.AssertExpectations(t)
}

func TestListingService_Update_InvalidatesCache(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockCache := new(MockListingCache)
	svc := newListingService(mockRepo, mockCache)

	mockRepo.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()
	mockRepo.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.Name == "Murzik"
	}), 3).Return(nil).Once()
	mockCache.On("Delete", mock.Anything, testListingID).Return(nil).Once()

	newName := "Murzik"
	listing, err := svc.Update(context.Background(), testListingID, testOwnerID, UpdateListingInput{Name: &newName})

	require.NoError(t, err)
	assert.Equal(t, "Murzik", listing.Name)
	mockCache.AssertExpectations(t)
}

func TestListingService_Delete_OnlyOwner(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	mockRepo.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()

	err := svc.Delete(context.Background(), testListingID, "intruder")

	assert.ErrorIs(t, err, entity.ErrForbidden)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestListingService_List_NormalizesPagination(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(p repository.ListListingsParams) bool {
		return p.Page == 1 && p.PageSize == 20
	})).Return(&repository.ListListingsResult{Listings: []entity.Listing{}, TotalCount: 0}, nil).Once()

	_, err := svc.List(context.Background(), repository.ListListingsParams{Page: -5, PageSize: 10000})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListingService_Species(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newListingService(mockRepo, nil)

	mockRepo.On("DistinctSpecies", mock.Anything).Return([]string{"cat", "dog"}, nil).Once()

	species, err := svc.Species(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, species)
}
