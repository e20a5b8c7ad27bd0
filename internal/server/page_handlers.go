package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// PageRequest carries the writable page fields
type PageRequest struct {
	Title           string   `json:"title" binding:"required"`
	Slug            string   `json:"slug" binding:"required"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	MetaKeywords    []string `json:"meta_keywords"`
	Template        string   `json:"template"`
	IsPublished     *bool    `json:"is_published"`
	IsFeatured      *bool    `json:"is_featured"`
	SortOrder       int      `json:"sort_order"`
	FeaturedImage   string   `json:"featured_image"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
}

func (p *PageRequest) apply(page *models.Page) {
	page.Title = p.Title
	page.Slug = p.Slug
	page.Content = p.Content
	page.Excerpt = p.Excerpt
	page.MetaTitle = p.MetaTitle
	page.MetaDescription = p.MetaDescription
	page.MetaKeywords = p.MetaKeywords
	page.SortOrder = p.SortOrder
	page.FeaturedImage = p.FeaturedImage
	page.Tags = p.Tags
	page.Category = p.Category
	if p.Template != "" {
		page.Template = p.Template
	}
	if p.IsPublished != nil {
		page.IsPublished = *p.IsPublished
	}
	if p.IsFeatured != nil {
		page.IsFeatured = *p.IsFeatured
	}
}

// @Summary List pages
// @Tags pages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Page
// @Router /api/pages [get]
func (s *Server) listPages(c *gin.Context) {
	query := s.db.Order("sort_order ASC, created_at DESC").Preload("CreatedBy").Preload("UpdatedBy")

	if published := c.Query("isPublished"); published != "" {
		query = query.Where("is_published = ?", published == "true")
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR slug LIKE ?", like, like)
	}

	var pages []models.Page
	if err := query.Find(&pages).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list pages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, pages)
}

// @Summary Create page
// @Tags pages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Page
// @Router /api/pages [post]
func (s *Server) createPage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.Slug, "slug"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, digits and hyphens"})
		return
	}

	sessionData, _ := GetSessionData(c)

	page := &models.Page{
		Template:    "default",
		CreatedByID: sessionData.UserID,
	}
	req.apply(page)

	if err := s.db.Create(page).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create page"})
		return
	}

	c.JSON(http.StatusCreated, page)
}

// @Summary Update page
// @Tags pages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Page ID"
// @Success 200 {object} models.Page
// @Router /api/pages/{id} [put]
func (s *Server) updatePage(c *gin.Context) {
	var page models.Page
	if err := models.FindByID(s.db, c.Param("id"), &page); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.Slug, "slug"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, digits and hyphens"})
		return
	}

	sessionData, _ := GetSessionData(c)
	req.apply(&page)
	page.UpdatedByID = sessionData.UserID

	if err := s.db.Save(&page).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update page"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// togglePageFlag flips one boolean column on a page
func (s *Server) togglePageFlag(c *gin.Context, column string) {
	var page models.Page
	if err := models.FindByID(s.db, c.Param("id"), &page); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var value bool
	switch column {
	case "is_published":
		page.IsPublished = !page.IsPublished
		value = page.IsPublished
	case "is_featured":
		page.IsFeatured = !page.IsFeatured
		value = page.IsFeatured
	}

	if err := s.db.Model(&page).Update(column, value).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to toggle page flag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update page"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// @Summary Toggle page publish flag
// @Tags pages
// @Security BearerAuth
// @Param id path string true "Page ID"
// @Success 200 {object} models.Page
// @Router /api/pages/{id}/toggle-publish [patch]
func (s *Server) togglePagePublish(c *gin.Context) {
	s.togglePageFlag(c, "is_published")
}

// @Summary Toggle page featured flag
// @Tags pages
// @Security BearerAuth
// @Param id path string true "Page ID"
// @Success 200 {object} models.Page
// @Router /api/pages/{id}/toggle-featured [patch]
func (s *Server) togglePageFeatured(c *gin.Context) {
	s.togglePageFlag(c, "is_featured")
}

// @Summary Delete page
// @Tags pages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Page ID"
// @Success 204
// @Router /api/pages/{id} [delete]
func (s *Server) deletePage(c *gin.Context) {
	var page models.Page
	if err := models.FindByID(s.db, c.Param("id"), &page); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&page).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete page"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Page analytics overview
// @Tags pages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/pages/analytics/overview [get]
func (s *Server) pageAnalytics(c *gin.Context) {
	var total, published, featured, drafts int64
	s.db.Model(&models.Page{}).Count(&total)
	s.db.Model(&models.Page{}).Where("is_published = ?", true).Count(&published)
	s.db.Model(&models.Page{}).Where("is_featured = ?", true).Count(&featured)
	s.db.Model(&models.Page{}).Where("is_published = ?", false).Count(&drafts)

	var totalViews *int64
	s.db.Model(&models.Page{}).Select("SUM(view_count)").Scan(&totalViews)

	var mostViewed []struct {
		Title     string `json:"title"`
		Slug      string `json:"slug"`
		ViewCount int    `json:"view_count"`
	}
	s.db.Model(&models.Page{}).
		Select("title, slug, view_count").
		Order("view_count DESC").
		Limit(5).
		Scan(&mostViewed)

	overview := gin.H{
		"total_pages":      total,
		"published_pages":  published,
		"featured_pages":   featured,
		"draft_pages":      drafts,
		"total_views":      0,
		"most_viewed_pages": mostViewed,
	}
	if totalViews != nil {
		overview["total_views"] = *totalViews
	}

	c.JSON(http.StatusOK, overview)
}
