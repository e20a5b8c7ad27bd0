package models

import "time"

// BlogPost is a public blog article managed from the console
type BlogPost struct {
	BaseModel
	Title          string   `json:"title" gorm:"not null"`
	Content        string   `json:"content" gorm:"type:text;not null"`
	Excerpt        string   `json:"excerpt"`
	Language       string   `json:"language" gorm:"not null;default:'en'"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags" gorm:"serializer:json"`
	FeaturedImage  string   `json:"featured_image"`
	IsPublished    bool     `json:"is_published" gorm:"not null;default:false"`
	IsFeatured     bool     `json:"is_featured" gorm:"not null;default:false"`
	ViewCount      int      `json:"view_count" gorm:"not null;default:0"`
	LikeCount      int      `json:"like_count" gorm:"not null;default:0"`
	CommentCount   int      `json:"comment_count" gorm:"not null;default:0"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SEOKeywords    []string `json:"seo_keywords" gorm:"serializer:json"`
	AuthorID       string   `json:"author_id"`

	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Page is a static site page (about, FAQ, legal, ...)
type Page struct {
	BaseModel
	Title           string   `json:"title" gorm:"not null"`
	Slug            string   `json:"slug" gorm:"unique;not null"`
	Content         string   `json:"content" gorm:"type:text"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	MetaKeywords    []string `json:"meta_keywords" gorm:"serializer:json"`
	Template        string   `json:"template" gorm:"not null;default:'default'"`
	IsPublished     bool     `json:"is_published" gorm:"not null;default:false"`
	IsFeatured      bool     `json:"is_featured" gorm:"not null;default:false"`
	SortOrder       int      `json:"sort_order" gorm:"not null;default:0"`
	ViewCount       int      `json:"view_count" gorm:"not null;default:0"`
	FeaturedImage   string   `json:"featured_image"`
	Tags            []string `json:"tags" gorm:"serializer:json"`
	Category        string   `json:"category"`
	CreatedByID     string   `json:"created_by_id"`
	UpdatedByID     string   `json:"updated_by_id"`

	CreatedBy *User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	UpdatedBy *User     `json:"updated_by,omitempty" gorm:"foreignKey:UpdatedByID;constraint:OnDelete:SET NULL"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
