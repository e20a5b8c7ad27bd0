package models

import "time"

// Notification recipient modes
const (
	RecipientsAll      = "all"
	RecipientsSpecific = "specific"
	RecipientsCategory = "category"
)

// Notification is a message pushed to platform users, either immediately
// or at a scheduled time
type Notification struct {
	BaseModel
	Title      string   `json:"title" gorm:"not null"`
	Message    string   `json:"message" gorm:"type:text;not null"`
	Type       string   `json:"type" gorm:"not null;default:'info'"` // info, success, warning, error, promotion, test_result, system
	Recipients string   `json:"recipients" gorm:"not null;default:'all'"`
	UserIDs    []string `json:"user_ids" gorm:"serializer:json"` // for recipients == "specific"
	Category   string   `json:"category"`                        // for recipients == "category"
	Priority   string   `json:"priority" gorm:"not null;default:'medium'"`

	IsSent       bool       `json:"is_sent" gorm:"not null;default:false"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	SentAt       *time.Time `json:"sent_at"`
	ExpiresAt    *time.Time `json:"expires_at"`

	ActionURL  string `json:"action_url"`
	ActionText string `json:"action_text"`

	CreatedByID string    `json:"created_by_id"`
	CreatedBy   *User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Due reports whether a scheduled notification should be dispatched now
func (n *Notification) Due(now time.Time) bool {
	if n.IsSent || n.ScheduledFor == nil {
		return false
	}
	return !n.ScheduledFor.After(now)
}

// AdminActivity is one entry in the console's audit trail. Rows are written
// by the server middleware for every mutating authenticated request.
type AdminActivity struct {
	BaseModel
	ActorID    string `json:"actor_id" gorm:"index"`
	ActorEmail string `json:"actor_email"`
	Action     string `json:"action" gorm:"not null"` // create, update, delete, send, login
	Resource   string `json:"resource" gorm:"not null;index"`
	ResourceID string `json:"resource_id"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	ClientIP   string `json:"client_ip"`
}
