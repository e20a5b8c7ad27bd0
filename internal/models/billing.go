package models

import "time"

// SubscriptionPlan is a purchasable plan (duration in days)
type SubscriptionPlan struct {
	BaseModel
	Name         string    `json:"name" gorm:"unique;not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	Currency     string    `json:"currency" gorm:"not null;default:'USD'"`
	DurationDays int       `json:"duration_days" gorm:"not null;default:30"`
	Features     []string  `json:"features" gorm:"serializer:json"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	SortOrder    int       `json:"sort_order" gorm:"not null;default:0"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription links a user to a plan for a period of time
type Subscription struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	PlanID    string     `json:"plan_id" gorm:"not null;index"`
	Status    string     `json:"status" gorm:"not null;default:'active'"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	AutoRenew bool       `json:"auto_renew" gorm:"not null;default:false"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	User *User             `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Plan *SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}
