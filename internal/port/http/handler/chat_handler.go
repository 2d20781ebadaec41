package handler

import (
	"net/http"
	"time"

	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/service"
)

type ChatHandler struct {
	chat service.ChatService
	log  logger.Logger
}

func NewChatHandler(chat service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// IssueToken handles POST /api/chat/token.
func (h *ChatHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	token, expiresAt, err := h.chat.IssueToken(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}
