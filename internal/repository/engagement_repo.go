package repository

import (
	"context"

	"github.com/pawmates/adoption-service/internal/domain/entity"
)

type EngagementUpdate struct {
	DeviceType     string
	HasOpenedModal bool
	SelectedPlan   string
	IsConverted    bool
	IsDeclined     bool
}

// EngagementRepository upserts one record per (user, feature).
type EngagementRepository interface {
	GetByUserAndFeature(ctx context.Context, userID, feature string) (*entity.EngagementRecord, error)
	Upsert(ctx context.Context, userID, feature string, update EngagementUpdate) (*entity.EngagementRecord, error)
}
