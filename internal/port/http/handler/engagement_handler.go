package handler

import (
	"net/http"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/service"
)

type EngagementHandler struct {
	engagement service.EngagementService
	log        logger.Logger
}

func NewEngagementHandler(engagement service.EngagementService, log logger.Logger) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, log: log}
}

type trackEngagementBody struct {
	Feature string `json:"feature"`
	Action  string `json:"action"`
	Plan    string `json:"plan"`
}

// Track handles POST /api/engagement.
func (h *EngagementHandler) Track(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var body trackEngagementBody
	if !decodeBody(w, r, &body) {
		return
	}

	record, err := h.engagement.Track(r.Context(), userID, service.TrackEngagementInput{
		Feature:   body.Feature,
		Action:    entity.EngagementAction(body.Action),
		Plan:      body.Plan,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
