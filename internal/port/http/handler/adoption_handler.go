package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/service"
)

// AdoptionHandler exposes the adoption-request lifecycle: submit, cancel,
// approve and reject, plus the adopter's adoption history.
type AdoptionHandler struct {
	adoptions service.AdoptionService
	log       logger.Logger
}

func NewAdoptionHandler(adoptions service.AdoptionService, log logger.Logger) *AdoptionHandler {
	return &AdoptionHandler{adoptions: adoptions, log: log}
}

type submitRequestBody struct {
	Message string `json:"message"`
}

type adoptionRequestResponse struct {
	ID          string `json:"id"`
	RequesterID string `json:"requester_id"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toRequestResponse(req *entity.AdoptionRequest) adoptionRequestResponse {
	return adoptionRequestResponse{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		Status:      string(req.Status),
		Message:     req.Message,
		CreatedAt:   req.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Submit handles POST /api/listings/{listingID}/requests.
func (h *AdoptionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")

	var body submitRequestBody
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}

	req, err := h.adoptions.SubmitRequest(r.Context(), listingID, userID, body.Message)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(req))
}

// Cancel handles DELETE /api/listings/{listingID}/requests. Cancelling when
// no request exists still returns 204 so retries are harmless.
func (h *AdoptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")

	if err := h.adoptions.CancelRequest(r.Context(), listingID, userID); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type resolveRequestBody struct {
	Action string `json:"action"`
}

// Resolve handles PATCH /api/listings/{listingID}/requests/{requestID} with a
// body of {"action": "approve"} or {"action": "reject"}.
func (h *AdoptionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")
	requestID := chi.URLParam(r, "requestID")

	var body resolveRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := h.adoptions.ResolveRequest(r.Context(), listingID, requestID, userID, service.ResolveAction(body.Action))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, true))
}

// ListAdoptions handles GET /api/users/{userID}/adoptions. The ledger is
// private, so a user can only read their own.
func (h *AdoptionHandler) ListAdoptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "userID")
	if targetID != userID {
		writeError(w, h.log, fmt.Errorf("%w: adoption history is private", entity.ErrForbidden))
		return
	}

	listingIDs, err := h.adoptions.ListAdoptions(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":     userID,
		"listing_ids": listingIDs,
	})
}
