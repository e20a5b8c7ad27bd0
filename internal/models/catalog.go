package models

import "time"

// Category groups questions and tests (e.g. logic, verbal, numeric)
type Category struct {
	BaseModel
	Name        string    `json:"name" gorm:"unique;not null"`
	Description string    `json:"description"`
	Color       string    `json:"color" gorm:"not null;default:'#3B82F6'"`
	Icon        string    `json:"icon"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedByID string    `json:"created_by_id"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	CreatedBy *User `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
}

// Question is a single quiz question with multiple-choice options
type Question struct {
	BaseModel
	Text          string   `json:"question_text" gorm:"not null"`
	Options       []string `json:"options" gorm:"serializer:json;not null"`
	CorrectAnswer int      `json:"correct_answer" gorm:"not null"` // index into Options
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty" gorm:"not null;default:'medium'"`
	CategoryID    string   `json:"category_id" gorm:"not null"`
	Image         string   `json:"image"`
	Points        int      `json:"points" gorm:"not null;default:10"`
	TimeLimit     int      `json:"time_limit" gorm:"not null;default:60"` // seconds
	CreatedByID   string   `json:"created_by_id"`

	Category  Category  `json:"category,omitzero" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedBy *User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Test is a published quiz assembled from questions
type Test struct {
	BaseModel
	Title        string  `json:"title" gorm:"not null"`
	Description  string  `json:"description"`
	CategoryID   string  `json:"category_id" gorm:"not null"`
	Difficulty   string  `json:"difficulty" gorm:"not null;default:'medium'"`
	TimeLimit    int     `json:"time_limit" gorm:"not null;default:30"` // minutes
	Image        string  `json:"image"`
	IsActive     bool    `json:"is_active" gorm:"not null;default:true"`
	IsNew        bool    `json:"is_new" gorm:"not null;default:false"`
	Participants int     `json:"participants" gorm:"not null;default:0"`
	Rating       float64 `json:"rating" gorm:"not null;default:0"`
	RatingCount  int     `json:"rating_count" gorm:"not null;default:0"`
	CreatedByID  string  `json:"created_by_id"`

	Category  Category   `json:"category,omitzero" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Questions []Question `json:"questions,omitempty" gorm:"many2many:test_questions;"`
	CreatedBy *User      `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TestResult records one completed test attempt
type TestResult struct {
	BaseModel
	UserID          string    `json:"user_id" gorm:"not null;index"`
	TestID          string    `json:"test_id" gorm:"not null;index"`
	Score           int       `json:"score" gorm:"not null"`
	CorrectCount    int       `json:"correct_count" gorm:"not null"`
	TotalQuestions  int       `json:"total_questions" gorm:"not null"`
	DurationSeconds int       `json:"duration_seconds" gorm:"not null"`
	CompletedAt     time.Time `json:"completed_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Test *Test `json:"test,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
}
