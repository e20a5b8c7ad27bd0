package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// CategoryRequest carries the writable category fields
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /api/categories [get]
func (s *Server) listCategories(c *gin.Context) {
	query := s.db.Order("sort_order ASC, created_at DESC").Preload("CreatedBy")

	if isActive := c.Query("isActive"); isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Router /api/categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsActive:    true,
		CreatedByID: sessionData.UserID,
	}
	if req.Color != "" {
		category.Color = req.Color
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.db.Create(category).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} models.Category
// @Router /api/categories/{id} [put]
func (s *Server) updateCategory(c *gin.Context) {
	var category models.Category
	if err := models.FindByID(s.db, c.Param("id"), &category); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category.Name = req.Name
	category.Description = req.Description
	category.Icon = req.Icon
	category.SortOrder = req.SortOrder
	if req.Color != "" {
		category.Color = req.Color
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.db.Save(&category).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// @Summary Toggle category active flag
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} models.Category
// @Router /api/categories/{id}/toggle [patch]
func (s *Server) toggleCategory(c *gin.Context) {
	var category models.Category
	if err := models.FindByID(s.db, c.Param("id"), &category); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	category.IsActive = !category.IsActive
	if err := s.db.Model(&category).Update("is_active", category.IsActive).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to toggle category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// @Summary Delete category
// @Description Fails while questions or tests still reference the category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Router /api/categories/{id} [delete]
func (s *Server) deleteCategory(c *gin.Context) {
	categoryID := c.Param("id")

	var category models.Category
	if err := models.FindByID(s.db, categoryID, &category); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var inUse int64
	if err := s.db.Model(&models.Question{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err == nil && inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Category still has questions"})
		return
	}
	if err := s.db.Model(&models.Test{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err == nil && inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Category still has tests"})
		return
	}

	if err := s.db.Delete(&category).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.Status(http.StatusNoContent)
}
