package entity

import (
	"fmt"
	"time"
)

type EngagementAction string

const (
	EngagementActionOpen       EngagementAction = "open"
	EngagementActionDecline    EngagementAction = "decline"
	EngagementActionSelectPlan EngagementAction = "select_plan"
)

var knownFeatures = map[string]bool{
	"video_upload":          true,
	"ai_recommender":        true,
	"unlimited_chat":        true,
	"verified_badge":        true,
	"priority_listing_post": true,
	"priority_listing_pet":  true,
	"video_support":         true,
	"android_app_download":  true,
	"user_signin_success":   true,
	"user_signup_success":   true,
	"navbar_premium_button": true,
}

// EngagementRecord tracks one user's interaction with a fake-door feature.
// One record per (user, feature); a converted record is never downgraded.
type EngagementRecord struct {
	ID             string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string    `bson:"user_id" json:"user_id"`
	Feature        string    `bson:"feature" json:"feature"`
	DeviceType     string    `bson:"device_type" json:"device_type"`
	HasOpenedModal bool      `bson:"has_opened_modal" json:"has_opened_modal"`
	SelectedPlan   string    `bson:"selected_plan,omitempty" json:"selected_plan,omitempty"`
	IsConverted    bool      `bson:"is_converted" json:"is_converted"`
	IsDeclined     bool      `bson:"is_declined" json:"is_declined"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

func ValidateEngagement(feature string, action EngagementAction, plan string) error {
	if !knownFeatures[feature] {
		return fmt.Errorf("%w: unknown feature %q", ErrValidation, feature)
	}
	switch action {
	case EngagementActionOpen, EngagementActionDecline:
		return nil
	case EngagementActionSelectPlan:
		if plan != "basic" && plan != "pro" {
			return fmt.Errorf("%w: unknown plan %q", ErrValidation, plan)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
}
