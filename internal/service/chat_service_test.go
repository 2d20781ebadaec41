package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/repository"
)

func TestChatService_IssueToken_CarriesIdentity(t *testing.T) {
	mockUsers := new(MockUserRepository)
	cfg := config.ChatConfig{TokenSecret: "chat-secret", TokenTTL: time.Hour}
	svc := NewChatService(mockUsers, cfg)

	mockUsers.On("GetByID", mock.Anything, "user1").
		Return(&entity.User{ID: "user1", FullName: "Jan Kowalski", Email: "jan@example.com"}, nil).Once()

	tokenString, expiresAt, err := svc.IssueToken(context.Background(), "user1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte("chat-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "user1", claims["sub"])
	assert.Equal(t, "Jan Kowalski", claims["name"])
	assert.Equal(t, "jan@example.com", claims["email"])
}

func TestChatService_IssueToken_UnknownUser(t *testing.T) {
	mockUsers := new(MockUserRepository)
	svc := NewChatService(mockUsers, config.ChatConfig{TokenSecret: "chat-secret", TokenTTL: time.Hour})

	mockUsers.On("GetByID", mock.Anything, "ghost").Return(nil, repository.ErrNotFound).Once()

	_, _, err := svc.IssueToken(context.Background(), "ghost")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
