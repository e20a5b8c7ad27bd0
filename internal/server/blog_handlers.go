package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// BlogPostRequest carries the writable blog post fields
type BlogPostRequest struct {
	Title          string   `json:"title" binding:"required"`
	Content        string   `json:"content" binding:"required"`
	Excerpt        string   `json:"excerpt"`
	Language       string   `json:"language" binding:"omitempty,oneof=tr en"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	FeaturedImage  string   `json:"featured_image"`
	IsPublished    *bool    `json:"is_published"`
	IsFeatured     *bool    `json:"is_featured"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SEOKeywords    []string `json:"seo_keywords"`
}

// BlogStats is the overview payload for the blog screen
type BlogStats struct {
	TotalPosts     int64 `json:"total_posts"`
	PublishedPosts int64 `json:"published_posts"`
	DraftPosts     int64 `json:"draft_posts"`
	FeaturedPosts  int64 `json:"featured_posts"`
	TotalViews     int64 `json:"total_views"`
	TotalLikes     int64 `json:"total_likes"`
	TotalComments  int64 `json:"total_comments"`
	CategoryStats  []struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	} `json:"category_stats"`
}

func (p *BlogPostRequest) apply(post *models.BlogPost) {
	post.Title = p.Title
	post.Content = p.Content
	post.Excerpt = p.Excerpt
	post.Category = p.Category
	post.Tags = p.Tags
	post.FeaturedImage = p.FeaturedImage
	post.SEOTitle = p.SEOTitle
	post.SEODescription = p.SEODescription
	post.SEOKeywords = p.SEOKeywords
	if p.Language != "" {
		post.Language = p.Language
	}
	if p.IsPublished != nil {
		post.IsPublished = *p.IsPublished
	}
	if p.IsFeatured != nil {
		post.IsFeatured = *p.IsFeatured
	}
}

// @Summary List blog posts
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.BlogPost
// @Router /api/blog [get]
func (s *Server) listBlogPosts(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("Author")

	if language := c.Query("language"); language != "" {
		query = query.Where("language = ?", language)
	}
	if published := c.Query("isPublished"); published != "" {
		query = query.Where("is_published = ?", published == "true")
	}

	var posts []models.BlogPost
	if err := query.Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list blog posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// @Summary Create blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.BlogPost
// @Router /api/blog [post]
func (s *Server) createBlogPost(c *gin.Context) {
	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	post := &models.BlogPost{
		Language: "en",
		AuthorID: sessionData.UserID,
	}
	req.apply(post)

	if err := s.db.Create(post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create blog post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// @Summary Update blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.BlogPost
// @Router /api/blog/{id} [put]
func (s *Server) updateBlogPost(c *gin.Context) {
	var post models.BlogPost
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.apply(&post)

	if err := s.db.Save(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update blog post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Delete blog post
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Router /api/blog/{id} [delete]
func (s *Server) deleteBlogPost(c *gin.Context) {
	var post models.BlogPost
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete blog post"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Blog stats overview
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BlogStats
// @Router /api/blog/stats/overview [get]
func (s *Server) blogStats(c *gin.Context) {
	var stats BlogStats

	s.db.Model(&models.BlogPost{}).Count(&stats.TotalPosts)
	s.db.Model(&models.BlogPost{}).Where("is_published = ?", true).Count(&stats.PublishedPosts)
	s.db.Model(&models.BlogPost{}).Where("is_published = ?", false).Count(&stats.DraftPosts)
	s.db.Model(&models.BlogPost{}).Where("is_featured = ?", true).Count(&stats.FeaturedPosts)

	var totals struct {
		Views    *int64
		Likes    *int64
		Comments *int64
	}
	s.db.Model(&models.BlogPost{}).
		Select("SUM(view_count) as views, SUM(like_count) as likes, SUM(comment_count) as comments").
		Scan(&totals)
	if totals.Views != nil {
		stats.TotalViews = *totals.Views
	}
	if totals.Likes != nil {
		stats.TotalLikes = *totals.Likes
	}
	if totals.Comments != nil {
		stats.TotalComments = *totals.Comments
	}

	s.db.Model(&models.BlogPost{}).
		Select("category, COUNT(*) as count").
		Where("category != ''").
		Group("category").
		Order("count DESC").
		Scan(&stats.CategoryStats)

	c.JSON(http.StatusOK, stats)
}
