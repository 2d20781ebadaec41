package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/mailer"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/repository"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeReset   = "reset"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UpdateProfileInput struct {
	FullName          *string
	PhoneNumber       *string
	ProfilePictureURL *string
}

type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*entity.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	VerifyAccessToken(tokenString string) (string, error)
}

type authService struct {
	users repository.UserRepository
	mail  mailer.Mailer
	cfg   config.AuthConfig
	log   logger.Logger
}

func NewAuthService(users repository.UserRepository, mail mailer.Mailer, cfg config.AuthConfig, log logger.Logger) AuthService {
	return &authService{users: users, mail: mail, cfg: cfg, log: log}
}

func (s *authService) Register(ctx context.Context, fullName, email, password string) (*entity.User, *TokenPair, error) {
	if len(password) < 8 {
		return nil, nil, fmt.Errorf("%w: password must be at least 8 characters", entity.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := entity.NewUser(fullName, email, string(hash))
	if err != nil {
		return nil, nil, err
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%w: email is already registered", entity.ErrConflict)
		}
		return nil, nil, mapStoreErr(err)
	}
	user.ID = id

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.log.Infof("User %s registered with email %s", id, email)
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, mapStoreErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.verifyToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	// The user may have been removed since the token was issued.
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, mapStoreErr(err)
	}

	return s.issueTokenPair(userID)
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, fmt.Errorf("%w: full name cannot be empty", entity.ErrValidation)
		}
		user.FullName = *input.FullName
	}
	if input.PhoneNumber != nil {
		if err := user.SetPhoneNumber(*input.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if input.ProfilePictureURL != nil {
		user.ProfilePictureURL = *input.ProfilePictureURL
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// ForgotPassword is deliberately quiet about unknown addresses so it cannot
// be used to probe which emails are registered.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Infof("Password reset requested for unknown email %s", email)
			return nil
		}
		return mapStoreErr(err)
	}

	token, err := s.signToken(user.ID, tokenTypeReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	if err := s.mail.SendPasswordResetEmail(user.Email, token); err != nil {
		s.log.Errorf("Failed to send password reset mail to %s: %v", user.Email, err)
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	userID, err := s.verifyToken(resetToken, tokenTypeReset)
	if err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", entity.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return mapStoreErr(err)
	}

	s.log.Infof("Password reset completed for user %s", userID)
	return nil
}

func (s *authService) VerifyAccessToken(tokenString string) (string, error) {
	return s.verifyToken(tokenString, tokenTypeAccess)
}

func (s *authService) issueTokenPair(userID string) (*TokenPair, error) {
	access, err := s.signToken(userID, tokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(userID, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) signToken(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *authService) verifyToken(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid or expired token", entity.ErrForbidden)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: malformed token claims", entity.ErrForbidden)
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return "", fmt.Errorf("%w: token is not a %s token", entity.ErrForbidden, wantType)
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", fmt.Errorf("%w: token has no subject", entity.ErrForbidden)
	}
	return userID, nil
}
