package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/auth"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a platform account. Only privileged roles can sign in to
// the admin console; regular users appear here for management purposes.
type User struct {
	BaseModel
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"unique;not null"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	Role          auth.Role `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	Age           string    `json:"age"`
	Gender        string    `json:"gender"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Settings represents the global configuration for the deployment.
// This is a singleton model (only one row should exist).
type Settings struct {
	BaseModel
	// Auto-generated on first setup (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`

	// Admin activity digest (cron expression, empty = no digest)
	DigestSchedule string     `json:"digest_schedule"`
	LastDigestAt   *time.Time `json:"last_digest_at"`
	NextDigestAt   *time.Time `json:"next_digest_at"`

	// How long admin activity rows are kept before pruning
	ActivityRetentionDays int `json:"activity_retention_days" gorm:"not null;default:90"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Settings{},
		&Category{}, &Question{}, &Test{}, &TestResult{},
		&SubscriptionPlan{}, &Subscription{},
		&BlogPost{}, &Page{},
		&Campaign{}, &Pixel{},
		&Notification{}, &AdminActivity{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
