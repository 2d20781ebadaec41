package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pawmates/adoption-service/internal/adapter/nats"
	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/mailer"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/platform/metrics"
	"github.com/pawmates/adoption-service/internal/repository"
)

type ResolveAction string

const (
	ResolveActionApprove ResolveAction = "approve"
	ResolveActionReject  ResolveAction = "reject"
)

const (
	maxApproveAttempts = 3
	approveRetryDelay  = 50 * time.Millisecond
	maxLedgerAttempts  = 3
)

// AdoptionService is the workflow engine for the adoption-request lifecycle.
// Approval atomically accepts one request, rejects its pending siblings,
// adopts the listing and records the adoption on the adopter's ledger.
type AdoptionService interface {
	SubmitRequest(ctx context.Context, listingID, requesterID, message string) (*entity.AdoptionRequest, error)
	CancelRequest(ctx context.Context, listingID, requesterID string) error
	ResolveRequest(ctx context.Context, listingID, requestID, actingOwnerID string, action ResolveAction) (*entity.Listing, error)
	ListAdoptions(ctx context.Context, userID string) ([]string, error)
}

type adoptionService struct {
	listingRepo repository.ListingRepository
	ledgerRepo  repository.AdoptionLedgerRepository
	userRepo    repository.UserRepository
	txRunner    repository.TxRunner
	cache       repository.ListingCache
	publisher   nats.MessagePublisher
	mail        mailer.Mailer
	metrics     *metrics.Manager
	log         logger.Logger
	opTimeout   time.Duration
}

func NewAdoptionService(
	listingRepo repository.ListingRepository,
	ledgerRepo repository.AdoptionLedgerRepository,
	userRepo repository.UserRepository,
	txRunner repository.TxRunner,
	cache repository.ListingCache,
	publisher nats.MessagePublisher,
	mail mailer.Mailer,
	m *metrics.Manager,
	log logger.Logger,
	opTimeout time.Duration,
) AdoptionService {
	return &adoptionService{
		listingRepo: listingRepo,
		ledgerRepo:  ledgerRepo,
		userRepo:    userRepo,
		txRunner:    txRunner,
		cache:       cache,
		publisher:   publisher,
		mail:        mail,
		metrics:     m,
		log:         log,
		opTimeout:   opTimeout,
	}
}

// mapStoreErr translates repository failures into the service error
// taxonomy. Deadline expiry is surfaced as the retryable timeout error so
// callers can tell it apart from a lost optimistic-lock race.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return entity.ErrNotFound
	case errors.Is(err, repository.ErrOptimisticLock):
		return fmt.Errorf("%w: listing was modified concurrently", entity.ErrConflict)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", entity.ErrTimeout, err)
	default:
		return err
	}
}

func (s *adoptionService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *adoptionService) SubmitRequest(ctx context.Context, listingID, requesterID, message string) (*entity.AdoptionRequest, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	req, err := listing.SubmitRequest(requesterID, message)
	if err != nil {
		return nil, err
	}

	if err := s.listingRepo.ReplaceVersioned(ctx, listing, listing.Version); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidateCache(ctx, listingID)
	if s.metrics != nil {
		s.metrics.RequestsSubmittedTotal.Inc()
	}
	s.publish(ctx, nats.SubjectRequestSubmitted, map[string]string{
		"listing_id":   listingID,
		"request_id":   req.ID,
		"requester_id": requesterID,
	})

	s.log.Infof("Adoption request %s submitted by %s on listing %s", req.ID, requesterID, listingID)
	return req, nil
}

func (s *adoptionService) CancelRequest(ctx context.Context, listingID, requesterID string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return mapStoreErr(err)
	}

	// Cancelling a request that does not exist is a no-op, which makes the
	// operation idempotent for clients that retry.
	if !listing.CancelRequest(requesterID) {
		return nil
	}

	if err := s.listingRepo.ReplaceVersioned(ctx, listing, listing.Version); err != nil {
		return mapStoreErr(err)
	}

	s.invalidateCache(ctx, listingID)
	if s.metrics != nil {
		s.metrics.RequestsCancelledTotal.Inc()
	}
	s.publish(ctx, nats.SubjectRequestCancelled, map[string]string{
		"listing_id":   listingID,
		"requester_id": requesterID,
	})

	s.log.Infof("Adoption request by %s on listing %s cancelled", requesterID, listingID)
	return nil
}

func (s *adoptionService) ResolveRequest(ctx context.Context, listingID, requestID, actingOwnerID string, action ResolveAction) (*entity.Listing, error) {
	switch action {
	case ResolveActionApprove, ResolveActionReject:
	default:
		return nil, fmt.Errorf("%w: unknown resolve action %q", entity.ErrValidation, action)
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if action == ResolveActionReject {
		return s.rejectRequest(ctx, listingID, requestID, actingOwnerID)
	}
	return s.approveRequest(ctx, listingID, requestID, actingOwnerID)
}

func (s *adoptionService) rejectRequest(ctx context.Context, listingID, requestID, actingOwnerID string) (*entity.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if listing.OwnerID != actingOwnerID {
		return nil, fmt.Errorf("%w: only the listing owner can resolve requests", entity.ErrForbidden)
	}
	if err := listing.RejectRequest(requestID); err != nil {
		return nil, err
	}

	if err := s.listingRepo.ReplaceVersioned(ctx, listing, listing.Version); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidateCache(ctx, listingID)
	if s.metrics != nil {
		s.metrics.RequestsRejectedTotal.Inc()
	}
	s.publish(ctx, nats.SubjectRequestRejected, map[string]string{
		"listing_id": listingID,
		"request_id": requestID,
	})

	return listing, nil
}

// approveRequest runs the atomic adoption transition. The listing write is
// guarded by the version read at the top of each attempt; losing the race
// triggers a re-read, and the retry fails once another request won the
// listing. With transaction support the ledger append commits in the same
// unit; without it the versioned listing write lands first (the
// authoritative fact) and the idempotent ledger append is retried after it.
func (s *adoptionService) approveRequest(ctx context.Context, listingID, requestID, actingOwnerID string) (*entity.Listing, error) {
	var lastErr error

	for attempt := 1; attempt <= maxApproveAttempts; attempt++ {
		listing, err := s.listingRepo.GetByID(ctx, listingID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if listing.OwnerID != actingOwnerID {
			return nil, fmt.Errorf("%w: only the listing owner can resolve requests", entity.ErrForbidden)
		}

		req, err := listing.ApproveRequest(requestID)
		if err != nil {
			return nil, err
		}
		expectedVersion := listing.Version

		err = s.commitApproval(ctx, listing, req.RequesterID, expectedVersion)
		if err == nil {
			s.finishApproval(ctx, listing, req)
			return listing, nil
		}

		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, mapStoreErr(err)
		}

		if s.metrics != nil {
			s.metrics.ApprovalConflictsTotal.Inc()
		}
		lastErr = err

		// Lost the race. If a competing approval adopted the listing the
		// retry must fail, not double-approve.
		current, errRead := s.listingRepo.GetByID(ctx, listingID)
		if errRead != nil {
			return nil, mapStoreErr(errRead)
		}
		if !current.IsAvailable() {
			return nil, fmt.Errorf("%w: listing %s is already adopted", entity.ErrInvalidState, listingID)
		}

		s.log.Warnf("Approval of request %s on listing %s lost an update race (attempt %d/%d), retrying",
			requestID, listingID, attempt, maxApproveAttempts)

		select {
		case <-ctx.Done():
			return nil, mapStoreErr(ctx.Err())
		case <-time.After(time.Duration(attempt) * approveRetryDelay):
		}
	}

	return nil, mapStoreErr(lastErr)
}

func (s *adoptionService) commitApproval(ctx context.Context, listing *entity.Listing, adopterID string, expectedVersion int) error {
	if s.txRunner != nil && s.txRunner.Supported() {
		return s.txRunner.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := s.listingRepo.ReplaceVersioned(txCtx, listing, expectedVersion); err != nil {
				return err
			}
			return s.ledgerRepo.Append(txCtx, adopterID, listing.ID)
		})
	}

	// Compensating protocol: the versioned listing write is the commit
	// point. The ledger append never rolls it back; it is idempotent and
	// retried until it lands.
	if err := s.listingRepo.ReplaceVersioned(ctx, listing, expectedVersion); err != nil {
		return err
	}

	var err error
	for attempt := 1; attempt <= maxLedgerAttempts; attempt++ {
		if err = s.ledgerRepo.Append(ctx, adopterID, listing.ID); err == nil {
			return nil
		}
		s.log.Warnf("Ledger append for user %s listing %s failed (attempt %d/%d): %v",
			adopterID, listing.ID, attempt, maxLedgerAttempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * approveRetryDelay):
		}
	}
	return err
}

func (s *adoptionService) finishApproval(ctx context.Context, listing *entity.Listing, req *entity.AdoptionRequest) {
	s.invalidateCache(ctx, listing.ID)
	if s.metrics != nil {
		s.metrics.AdoptionsApprovedTotal.Inc()
	}
	s.publish(ctx, nats.SubjectAdoptionApproved, map[string]string{
		"listing_id": listing.ID,
		"request_id": req.ID,
		"adopter_id": req.RequesterID,
	})

	if s.userRepo != nil && s.mail != nil {
		adopter, err := s.userRepo.GetByID(ctx, req.RequesterID)
		if err != nil {
			s.log.Warnf("Could not load adopter %s for approval mail: %v", req.RequesterID, err)
			return
		}
		if err := s.mail.SendAdoptionApprovedEmail(adopter.Email, listing.Name); err != nil {
			s.log.Warnf("Failed to send approval mail to %s: %v", adopter.Email, err)
		}
	}

	s.log.Infof("Listing %s adopted by %s via request %s", listing.ID, req.RequesterID, req.ID)
}

func (s *adoptionService) ListAdoptions(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listingIDs, err := s.ledgerRepo.List(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return listingIDs, nil
}

func (s *adoptionService) invalidateCache(ctx context.Context, listingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate cache for listing %s: %v", listingID, err)
	}
}

func (s *adoptionService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.log.Warnf("Failed to publish %s event: %v", subject, err)
	}
}
