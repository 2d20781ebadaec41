package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/mailer"
	"github.com/pawmates/adoption-service/internal/repository"
)

const (
	testListingID = "listing1"
	testOwnerID   = "owner1"
	testAdopterID = "adopter1"
	testRequestID = "request1"
)

func availableListing(requests ...entity.AdoptionRequest) *entity.Listing {
	now := time.Now().UTC()
	return &entity.Listing{
		ID:               testListingID,
		OwnerID:          testOwnerID,
		Name:             "Barsik",
		Species:          "cat",
		AdoptionFee:      50,
		ImageURLs:        []string{"http://img/1.jpg"},
		Status:           entity.ListingStatusAvailable,
		AdoptionRequests: requests,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          3,
	}
}

func pendingRequest(requestID, requesterID string) entity.AdoptionRequest {
	return entity.AdoptionRequest{
		ID:          requestID,
		RequesterID: requesterID,
		Status:      entity.RequestStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func newAdoptionService(listings *MockListingRepository, ledger *MockLedgerRepository, tx repository.TxRunner) AdoptionService {
	return NewAdoptionService(listings, ledger, nil, tx, nil, nil, mailer.NoopMailer{}, nil, NewNoOpLogger(), 0)
}

func TestAdoptionService_SubmitRequest_Success(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	mockListings.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return len(l.AdoptionRequests) == 1 && l.AdoptionRequests[0].RequesterID == testAdopterID
	}), 3).Return(nil).Once()

	req, err := svc.SubmitRequest(context.Background(), testListingID, testAdopterID, "I have a garden")

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, entity.RequestStatusPending, req.Status)
	mockListings.AssertExpectations(t)
}

func TestAdoptionService_SubmitRequest_ListingNotFound(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	mockListings.On("GetByID", mock.Anything, testListingID).Return(nil, repository.ErrNotFound).Once()

	_, err := svc.SubmitRequest(context.Background(), testListingID, testAdopterID, "")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAdoptionService_SubmitRequest_ConcurrentWriteSurfacesConflict(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	mockListings.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.Anything, 3).Return(repository.ErrOptimisticLock).Once()

	_, err := svc.SubmitRequest(context.Background(), testListingID, testAdopterID, "")
	assert.ErrorIs(t, err, entity.ErrConflict)
}

func TestAdoptionService_SubmitRequest_TimeoutMapped(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	mockListings.On("GetByID", mock.Anything, testListingID).
		Return(nil, fmt.Errorf("find listing: %w", context.DeadlineExceeded)).Once()

	_, err := svc.SubmitRequest(context.Background(), testListingID, testAdopterID, "")
	assert.ErrorIs(t, err, entity.ErrTimeout)
}

func TestAdoptionService_CancelRequest_RemovesAndPersists(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	l := availableListing(pendingRequest(testRequestID, testAdopterID))
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return len(l.AdoptionRequests) == 0
	}), 3).Return(nil).Once()

	err := svc.CancelRequest(context.Background(), testListingID, testAdopterID)
	require.NoError(t, err)
	mockListings.AssertExpectations(t)
}

func TestAdoptionService_CancelRequest_NoRequestIsNoOp(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	mockListings.On("GetByID", mock.Anything, testListingID).Return(availableListing(), nil).Once()

	err := svc.CancelRequest(context.Background(), testListingID, testAdopterID)
	require.NoError(t, err)
	mockListings.AssertNotCalled(t, "ReplaceVersioned", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdoptionService_ResolveRequest_ApproveWithTransaction(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	l := availableListing(
		pendingRequest(testRequestID, testAdopterID),
		pendingRequest("request2", "adopter2"),
	)
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.Status == entity.ListingStatusAdopted &&
			l.AdoptedBy == testAdopterID &&
			l.FindRequest(testRequestID).Status == entity.RequestStatusAccepted &&
			l.FindRequest("request2").Status == entity.RequestStatusRejected
	}), 3).Return(nil).Once()
	mockLedger.On("Append", mock.Anything, testAdopterID, testListingID).Return(nil).Once()

	result, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionApprove)

	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAdopted, result.Status)
	mockListings.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestAdoptionService_ResolveRequest_ApproveByNonOwnerForbidden(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	l := availableListing(pendingRequest(testRequestID, testAdopterID))
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()

	_, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, "intruder", ResolveActionApprove)

	assert.ErrorIs(t, err, entity.ErrForbidden)
	mockListings.AssertNotCalled(t, "ReplaceVersioned", mock.Anything, mock.Anything, mock.Anything)
	mockLedger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdoptionService_ResolveRequest_ApproveRetriesAfterLostRace(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	first := availableListing(pendingRequest(testRequestID, testAdopterID))
	// Another writer bumped the version between our read and write.
	reread := availableListing(pendingRequest(testRequestID, testAdopterID))
	reread.Version = 4
	second := availableListing(pendingRequest(testRequestID, testAdopterID))
	second.Version = 4

	mockListings.On("GetByID", mock.Anything, testListingID).Return(first, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.Anything, 3).Return(repository.ErrOptimisticLock).Once()
	mockListings.On("GetByID", mock.Anything, testListingID).Return(reread, nil).Once()
	mockListings.On("GetByID", mock.Anything, testListingID).Return(second, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.Anything, 4).Return(nil).Once()
	mockLedger.On("Append", mock.Anything, testAdopterID, testListingID).Return(nil).Once()

	result, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionApprove)

	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAdopted, result.Status)
	mockListings.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestAdoptionService_ResolveRequest_RaceLostToCompetingApproval(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	first := availableListing(
		pendingRequest(testRequestID, testAdopterID),
		pendingRequest("request2", "adopter2"),
	)
	adopted := availableListing(pendingRequest(testRequestID, testAdopterID))
	adopted.Status = entity.ListingStatusAdopted
	adopted.AdoptedBy = "adopter2"
	adopted.Version = 4

	mockListings.On("GetByID", mock.Anything, testListingID).Return(first, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.Anything, 3).Return(repository.ErrOptimisticLock).Once()
	mockListings.On("GetByID", mock.Anything, testListingID).Return(adopted, nil).Once()

	_, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionApprove)

	assert.ErrorIs(t, err, entity.ErrInvalidState)
	mockLedger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdoptionService_ResolveRequest_ApproveOnAdoptedListingFails(t *testing.T) {
	mockListings := new(MockListingRepository)
	svc := newAdoptionService(mockListings, new(MockLedgerRepository), fakeTxRunner{supported: true})

	l := availableListing(pendingRequest(testRequestID, testAdopterID))
	l.Status = entity.ListingStatusAdopted
	l.AdoptedBy = "adopter2"
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()

	_, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionApprove)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestAdoptionService_ResolveRequest_ApproveCompensatingPathRetriesLedger(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: false})

	l := availableListing(pendingRequest(testRequestID, testAdopterID))
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.Anything, 3).Return(nil).Once()
	mockLedger.On("Append", mock.Anything, testAdopterID, testListingID).
		Return(fmt.Errorf("transient write failure")).Once()
	mockLedger.On("Append", mock.Anything, testAdopterID, testListingID).Return(nil).Once()

	result, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionApprove)

	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAdopted, result.Status)
	mockLedger.AssertExpectations(t)
}

func TestAdoptionService_ResolveRequest_Reject(t *testing.T) {
	mockListings := new(MockListingRepository)
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(mockListings, mockLedger, fakeTxRunner{supported: true})

	l := availableListing(pendingRequest(testRequestID, testAdopterID))
	mockListings.On("GetByID", mock.Anything, testListingID).Return(l, nil).Once()
	mockListings.On("ReplaceVersioned", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.IsAvailable() && l.FindRequest(testRequestID).Status == entity.RequestStatusRejected
	}), 3).Return(nil).Once()

	result, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, ResolveActionReject)

	require.NoError(t, err)
	assert.True(t, result.IsAvailable())
	mockLedger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdoptionService_ResolveRequest_UnknownAction(t *testing.T) {
	svc := newAdoptionService(new(MockListingRepository), new(MockLedgerRepository), fakeTxRunner{supported: true})

	_, err := svc.ResolveRequest(context.Background(), testListingID, testRequestID, testOwnerID, "archive")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestAdoptionService_ListAdoptions(t *testing.T) {
	mockLedger := new(MockLedgerRepository)
	svc := newAdoptionService(new(MockListingRepository), mockLedger, fakeTxRunner{supported: true})

	mockLedger.On("List", mock.Anything, testAdopterID).Return([]string{"listing1", "listing2"}, nil).Once()

	ids, err := svc.ListAdoptions(context.Background(), testAdopterID)

	require.NoError(t, err)
	assert.Equal(t, []string{"listing1", "listing2"}, ids)
}
