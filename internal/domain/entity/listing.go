package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "AVAILABLE"
	ListingStatusAdopted   ListingStatus = "ADOPTED"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusAccepted RequestStatus = "ACCEPTED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// AdoptionRequest lives inside its parent Listing document. Keeping the
// requests embedded makes "accept one, reject all pending siblings" a single
// conditional write on the listing.
type AdoptionRequest struct {
	ID          string        `bson:"id"`
	RequesterID string        `bson:"requester_id"`
	Status      RequestStatus `bson:"status"`
	Message     string        `bson:"message,omitempty"`
	CreatedAt   time.Time     `bson:"created_at"`
}

func (r *AdoptionRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

type Listing struct {
	ID               string            `bson:"_id,omitempty"`
	OwnerID          string            `bson:"owner_id"`
	Name             string            `bson:"name"`
	Species          string            `bson:"species"`
	Breed            string            `bson:"breed,omitempty"`
	Age              int               `bson:"age,omitempty"`
	Gender           string            `bson:"gender,omitempty"`
	Description      string            `bson:"description,omitempty"`
	Location         string            `bson:"location,omitempty"`
	AdoptionFee      float64           `bson:"adoption_fee"`
	ImageURLs        []string          `bson:"image_urls"`
	Status           ListingStatus     `bson:"status"`
	AdoptedBy        string            `bson:"adopted_by,omitempty"`
	AdoptionRequests []AdoptionRequest `bson:"adoption_requests"`
	CreatedAt        time.Time         `bson:"created_at"`
	UpdatedAt        time.Time         `bson:"updated_at"`
	Version          int               `bson:"version"`
}

func NewListing(ownerID, name, species string, imageURLs []string, adoptionFee float64) (*Listing, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner ID cannot be empty", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: pet name cannot be empty", ErrValidation)
	}
	if species == "" {
		return nil, fmt.Errorf("%w: species cannot be empty", ErrValidation)
	}
	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("%w: a listing needs at least one image", ErrValidation)
	}
	if adoptionFee < 0 {
		return nil, fmt.Errorf("%w: adoption fee cannot be negative", ErrValidation)
	}

	now := time.Now().UTC()
	return &Listing{
		OwnerID:          ownerID,
		Name:             name,
		Species:          species,
		AdoptionFee:      adoptionFee,
		ImageURLs:        imageURLs,
		Status:           ListingStatusAvailable,
		AdoptionRequests: []AdoptionRequest{},
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}, nil
}

func (l *Listing) IsAvailable() bool {
	return l.Status == ListingStatusAvailable
}

// FindRequest returns the request with the given ID, or nil.
func (l *Listing) FindRequest(requestID string) *AdoptionRequest {
	for i := range l.AdoptionRequests {
		if l.AdoptionRequests[i].ID == requestID {
			return &l.AdoptionRequests[i]
		}
	}
	return nil
}

// PendingRequestFrom returns the requester's pending request, or nil. A
// requester may accumulate rejected entries over time, so every entry has to
// be checked, not just the first.
func (l *Listing) PendingRequestFrom(requesterID string) *AdoptionRequest {
	for i := range l.AdoptionRequests {
		if l.AdoptionRequests[i].RequesterID == requesterID && l.AdoptionRequests[i].IsPending() {
			return &l.AdoptionRequests[i]
		}
	}
	return nil
}

// SubmitRequest appends a new pending request. The owner cannot request their
// own pet, and a requester with a still-pending request cannot submit a
// second one. A previously rejected request does not block resubmission.
func (l *Listing) SubmitRequest(requesterID, message string) (*AdoptionRequest, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("%w: requester ID cannot be empty", ErrValidation)
	}
	if !l.IsAvailable() {
		return nil, fmt.Errorf("%w: listing %s is not available for adoption", ErrInvalidState, l.ID)
	}
	if requesterID == l.OwnerID {
		return nil, fmt.Errorf("%w: owner cannot request adoption of their own pet", ErrConflict)
	}
	if existing := l.PendingRequestFrom(requesterID); existing != nil {
		return nil, fmt.Errorf("%w: requester %s already has a pending request", ErrConflict, requesterID)
	}

	req := AdoptionRequest{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		Status:      RequestStatusPending,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	l.AdoptionRequests = append(l.AdoptionRequests, req)
	l.touch()
	return &l.AdoptionRequests[len(l.AdoptionRequests)-1], nil
}

// CancelRequest removes every entry the requester holds, pending or rejected.
// Returns false when there was nothing to remove, which callers treat as an
// idempotent no-op.
func (l *Listing) CancelRequest(requesterID string) bool {
	kept := l.AdoptionRequests[:0]
	for _, req := range l.AdoptionRequests {
		if req.RequesterID != requesterID {
			kept = append(kept, req)
		}
	}
	if len(kept) == len(l.AdoptionRequests) {
		return false
	}
	l.AdoptionRequests = kept
	l.touch()
	return true
}

// RejectRequest moves a single pending request to rejected. The listing
// itself does not change state.
func (l *Listing) RejectRequest(requestID string) error {
	req := l.FindRequest(requestID)
	if req == nil {
		return fmt.Errorf("%w: adoption request %s", ErrNotFound, requestID)
	}
	if !req.IsPending() {
		return fmt.Errorf("%w: request %s is already %s", ErrInvalidState, requestID, req.Status)
	}
	req.Status = RequestStatusRejected
	l.touch()
	return nil
}

// ApproveRequest performs the listing-side half of the adoption transition:
// the target request becomes accepted, every other still-pending request is
// rejected, and the listing flips to adopted with AdoptedBy set. The caller
// is responsible for persisting the result atomically together with the
// adopter's ledger entry.
func (l *Listing) ApproveRequest(requestID string) (*AdoptionRequest, error) {
	if !l.IsAvailable() {
		return nil, fmt.Errorf("%w: listing %s is already adopted", ErrInvalidState, l.ID)
	}
	req := l.FindRequest(requestID)
	if req == nil {
		return nil, fmt.Errorf("%w: adoption request %s", ErrNotFound, requestID)
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("%w: request %s is already %s", ErrInvalidState, requestID, req.Status)
	}

	req.Status = RequestStatusAccepted
	for i := range l.AdoptionRequests {
		if l.AdoptionRequests[i].ID != requestID && l.AdoptionRequests[i].IsPending() {
			l.AdoptionRequests[i].Status = RequestStatusRejected
		}
	}
	l.Status = ListingStatusAdopted
	l.AdoptedBy = req.RequesterID
	l.touch()
	return req, nil
}

func (l *Listing) touch() {
	l.UpdatedAt = time.Now().UTC()
}
