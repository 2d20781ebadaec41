package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/repository"
)

type TrackEngagementInput struct {
	Feature   string
	Action    entity.EngagementAction
	Plan      string
	UserAgent string
}

// EngagementService records interactions with fake-door premium features.
type EngagementService interface {
	Track(ctx context.Context, userID string, input TrackEngagementInput) (*entity.EngagementRecord, error)
}

type engagementService struct {
	repo      repository.EngagementRepository
	log       logger.Logger
	opTimeout time.Duration
}

func NewEngagementService(repo repository.EngagementRepository, log logger.Logger, opTimeout time.Duration) EngagementService {
	return &engagementService{repo: repo, log: log, opTimeout: opTimeout}
}

func deviceTypeFromUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		return "mobile"
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return "tablet"
	case ua == "":
		return "unknown"
	default:
		return "desktop"
	}
}

func (s *engagementService) Track(ctx context.Context, userID string, input TrackEngagementInput) (*entity.EngagementRecord, error) {
	if err := entity.ValidateEngagement(input.Feature, input.Action, input.Plan); err != nil {
		return nil, err
	}

	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}

	if input.Action != entity.EngagementActionSelectPlan {
		existing, err := s.repo.GetByUserAndFeature(ctx, userID, input.Feature)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, mapStoreErr(err)
		}
		// A converted record is final: later opens or declines must not
		// downgrade it.
		if existing != nil && existing.IsConverted {
			return existing, nil
		}
	}

	update := repository.EngagementUpdate{
		DeviceType: deviceTypeFromUserAgent(input.UserAgent),
	}
	switch input.Action {
	case entity.EngagementActionOpen:
		update.HasOpenedModal = true
	case entity.EngagementActionDecline:
		update.IsDeclined = true
	case entity.EngagementActionSelectPlan:
		update.HasOpenedModal = true
		update.SelectedPlan = input.Plan
		update.IsConverted = true
	}

	record, err := s.repo.Upsert(ctx, userID, input.Feature, update)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.Debugf("Engagement recorded: user=%s feature=%s action=%s", userID, input.Feature, input.Action)
	return record, nil
}
