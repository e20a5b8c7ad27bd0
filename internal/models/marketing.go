package models

import "time"

// Campaign statuses
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// Campaign is a marketing campaign with budget and tracking metrics
type Campaign struct {
	BaseModel
	Name           string     `json:"name" gorm:"not null"`
	Description    string     `json:"description"`
	Type           string     `json:"type" gorm:"not null;default:'social'"`
	Status         string     `json:"status" gorm:"not null;default:'draft'"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	BudgetAmount   float64    `json:"budget_amount" gorm:"not null;default:0"`
	BudgetCurrency string     `json:"budget_currency" gorm:"not null;default:'USD'"`
	BudgetSpent    float64    `json:"budget_spent" gorm:"not null;default:0"`
	TrackingCode   string     `json:"tracking_code" gorm:"unique;not null"`
	ConversionGoal string     `json:"conversion_goal"`
	Commission     float64    `json:"commission" gorm:"not null;default:0"`
	CommissionType string     `json:"commission_type" gorm:"not null;default:'percentage'"`
	Impressions    int        `json:"impressions" gorm:"not null;default:0"`
	Clicks         int        `json:"clicks" gorm:"not null;default:0"`
	Conversions    int        `json:"conversions" gorm:"not null;default:0"`
	Revenue        float64    `json:"revenue" gorm:"not null;default:0"`
	IsActive       bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedByID    string     `json:"created_by_id"`

	CreatedBy *User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Pixel statuses
const (
	PixelActive   = "active"
	PixelTesting  = "testing"
	PixelInactive = "inactive"
)

// Pixel is a third-party tracking pixel (Meta, Google, TikTok, ...)
type Pixel struct {
	BaseModel
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	Type        string `json:"type" gorm:"not null"` // meta, google, tiktok, twitter, custom
	PixelID     string `json:"pixel_id" gorm:"not null"`
	Status      string `json:"status" gorm:"not null;default:'testing'"`

	// Which site events the pixel fires on
	TrackPageView       bool `json:"track_page_view" gorm:"not null;default:true"`
	TrackRegistration   bool `json:"track_registration" gorm:"not null;default:false"`
	TrackTestStart      bool `json:"track_test_start" gorm:"not null;default:false"`
	TrackTestCompletion bool `json:"track_test_completion" gorm:"not null;default:false"`
	TrackSubscription   bool `json:"track_subscription" gorm:"not null;default:false"`
	TrackPurchase       bool `json:"track_purchase" gorm:"not null;default:false"`

	IsActive    bool   `json:"is_active" gorm:"not null;default:true"`
	CreatedByID string `json:"created_by_id"`

	CreatedBy *User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
