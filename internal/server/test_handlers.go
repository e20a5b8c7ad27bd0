package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// TestRequest carries the writable test fields
type TestRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id" binding:"required"`
	Difficulty  string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimit   int      `json:"time_limit"`
	Image       string   `json:"image"`
	IsActive    *bool    `json:"is_active"`
	IsNew       *bool    `json:"is_new"`
	QuestionIDs []string `json:"question_ids"`
}

// @Summary List tests
// @Tags tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Test
// @Router /api/tests [get]
func (s *Server) listTests(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("Category").Preload("Questions")

	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if isActive := c.Query("isActive"); isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	var tests []models.Test
	if err := query.Find(&tests).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tests)
}

// @Summary Create test
// @Tags tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TestRequest true "Test"
// @Success 201 {object} models.Test
// @Router /api/tests [post]
func (s *Server) createTest(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions, ok := s.resolveQuestions(c, req.QuestionIDs, req.CategoryID)
	if !ok {
		return
	}

	sessionData, _ := GetSessionData(c)

	test := &models.Test{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Difficulty:  "medium",
		TimeLimit:   30,
		Image:       req.Image,
		IsActive:    true,
		IsNew:       true,
		Questions:   questions,
		CreatedByID: sessionData.UserID,
	}
	if req.Difficulty != "" {
		test.Difficulty = req.Difficulty
	}
	if req.TimeLimit > 0 {
		test.TimeLimit = req.TimeLimit
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}
	if req.IsNew != nil {
		test.IsNew = *req.IsNew
	}

	if err := s.db.Create(test).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create test")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create test"})
		return
	}

	c.JSON(http.StatusCreated, test)
}

// @Summary Update test
// @Tags tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test ID"
// @Success 200 {object} models.Test
// @Router /api/tests/{id} [put]
func (s *Server) updateTest(c *gin.Context) {
	var test models.Test
	if err := models.FindByID(s.db, c.Param("id"), &test); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find test")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions, ok := s.resolveQuestions(c, req.QuestionIDs, req.CategoryID)
	if !ok {
		return
	}

	test.Title = req.Title
	test.Description = req.Description
	test.CategoryID = req.CategoryID
	test.Image = req.Image
	if req.Difficulty != "" {
		test.Difficulty = req.Difficulty
	}
	if req.TimeLimit > 0 {
		test.TimeLimit = req.TimeLimit
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}
	if req.IsNew != nil {
		test.IsNew = *req.IsNew
	}

	if err := s.db.Save(&test).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update test")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update test"})
		return
	}

	// Replace the question set when one was provided
	if req.QuestionIDs != nil {
		if err := s.db.Model(&test).Association("Questions").Replace(questions); err != nil {
			s.logger.Error().Err(err).Msg("Failed to update test questions")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update test questions"})
			return
		}
		test.Questions = questions
	}

	c.JSON(http.StatusOK, test)
}

// @Summary Delete test
// @Tags tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test ID"
// @Success 204
// @Router /api/tests/{id} [delete]
func (s *Server) deleteTest(c *gin.Context) {
	var test models.Test
	if err := models.FindByID(s.db, c.Param("id"), &test); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find test")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Select("Questions").Delete(&test).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete test")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete test"})
		return
	}

	c.Status(http.StatusNoContent)
}

// resolveQuestions validates the referenced category and loads the question
// set for a create/update request. Writes the error response itself.
func (s *Server) resolveQuestions(c *gin.Context, questionIDs []string, categoryID string) ([]models.Question, bool) {
	var category models.Category
	if err := models.FindByID(s.db, categoryID, &category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return nil, false
	}

	if len(questionIDs) == 0 {
		return nil, true
	}

	var questions []models.Question
	if err := s.db.Where("id IN ?", questionIDs).Find(&questions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load questions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if len(questions) != len(questionIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "One or more questions not found"})
		return nil, false
	}

	return questions, true
}
