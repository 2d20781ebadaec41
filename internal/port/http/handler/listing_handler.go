package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/repository"
	"github.com/pawmates/adoption-service/internal/service"
)

const maxPhotoUploadBytes = 10 << 20

type ListingHandler struct {
	listings service.ListingService
	log      logger.Logger
}

func NewListingHandler(listings service.ListingService, log logger.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, log: log}
}

type listingResponse struct {
	ID               string                    `json:"id"`
	OwnerID          string                    `json:"owner_id"`
	Name             string                    `json:"name"`
	Species          string                    `json:"species"`
	Breed            string                    `json:"breed,omitempty"`
	Age              int                       `json:"age,omitempty"`
	Gender           string                    `json:"gender,omitempty"`
	Description      string                    `json:"description,omitempty"`
	Location         string                    `json:"location,omitempty"`
	AdoptionFee      float64                   `json:"adoption_fee"`
	ImageURLs        []string                  `json:"image_urls"`
	Status           string                    `json:"status"`
	AdoptedBy        string                    `json:"adopted_by,omitempty"`
	AdoptionRequests []adoptionRequestResponse `json:"adoption_requests,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// toListingResponse renders a listing. The embedded requests carry
// requester identities and messages, so they are only included for the
// owner's view.
func toListingResponse(l *entity.Listing, includeRequests bool) listingResponse {
	resp := listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Name:        l.Name,
		Species:     l.Species,
		Breed:       l.Breed,
		Age:         l.Age,
		Gender:      l.Gender,
		Description: l.Description,
		Location:    l.Location,
		AdoptionFee: l.AdoptionFee,
		ImageURLs:   l.ImageURLs,
		Status:      string(l.Status),
		AdoptedBy:   l.AdoptedBy,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if includeRequests {
		for i := range l.AdoptionRequests {
			resp.AdoptionRequests = append(resp.AdoptionRequests, toRequestResponse(&l.AdoptionRequests[i]))
		}
	}
	return resp
}

type createListingBody struct {
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	Breed       string   `json:"breed"`
	Age         int      `json:"age"`
	Gender      string   `json:"gender"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	AdoptionFee float64  `json:"adoption_fee"`
	ImageURLs   []string `json:"image_urls"`
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var body createListingBody
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := h.listings.Create(r.Context(), userID, service.CreateListingInput{
		Name:        body.Name,
		Species:     body.Species,
		Breed:       body.Breed,
		Age:         body.Age,
		Gender:      body.Gender,
		Description: body.Description,
		Location:    body.Location,
		AdoptionFee: body.AdoptionFee,
		ImageURLs:   body.ImageURLs,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing, true))
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	listing, err := h.listings.GetByID(r.Context(), listingID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, toListingResponse(listing, userID == listing.OwnerID))
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	params := repository.ListListingsParams{
		Species:   q.Get("species"),
		OwnerID:   q.Get("owner_id"),
		Status:    q.Get("status"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}

	result, err := h.listings.List(r.Context(), params)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	items := make([]listingResponse, 0, len(result.Listings))
	for i := range result.Listings {
		l := &result.Listings[i]
		items = append(items, toListingResponse(l, userID == l.OwnerID))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listings":    items,
		"total_count": result.TotalCount,
	})
}

type updateListingBody struct {
	Name        *string  `json:"name"`
	Breed       *string  `json:"breed"`
	Age         *int     `json:"age"`
	Gender      *string  `json:"gender"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	AdoptionFee *float64 `json:"adoption_fee"`
	ImageURLs   []string `json:"image_urls"`
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")

	var body updateListingBody
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := h.listings.Update(r.Context(), listingID, userID, service.UpdateListingInput{
		Name:        body.Name,
		Breed:       body.Breed,
		Age:         body.Age,
		Gender:      body.Gender,
		Description: body.Description,
		Location:    body.Location,
		AdoptionFee: body.AdoptionFee,
		ImageURLs:   body.ImageURLs,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, true))
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")

	if err := h.listings.Delete(r.Context(), listingID, userID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles multipart POST /api/listings/photos. The returned URL
// is used in a subsequent create or update call.
func (h *ListingHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected multipart form with a photo field"})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "photo field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoUploadBytes))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	url, err := h.listings.UploadPhoto(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *ListingHandler) Species(w http.ResponseWriter, r *http.Request) {
	species, err := h.listings.Species(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"species": species})
}
