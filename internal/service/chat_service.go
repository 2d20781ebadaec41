package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/repository"
)

// ChatService mints short-lived tokens that let an authenticated user join
// the external chat backend under their own identity.
type ChatService interface {
	IssueToken(ctx context.Context, userID string) (string, time.Time, error)
}

type chatService struct {
	users repository.UserRepository
	cfg   config.ChatConfig
}

func NewChatService(users repository.UserRepository, cfg config.ChatConfig) ChatService {
	return &chatService{users: users, cfg: cfg}
}

func (s *chatService) IssueToken(ctx context.Context, userID string) (string, time.Time, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, mapStoreErr(err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.FullName,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign chat token: %w", err)
	}
	return signed, expiresAt, nil
}
