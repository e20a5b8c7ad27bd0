package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// QuestionRequest carries the writable question fields
type QuestionRequest struct {
	Text          string   `json:"question_text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2,max=6"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	CategoryID    string   `json:"category_id" binding:"required"`
	Image         string   `json:"image"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"time_limit"`
}

func (s *Server) questionFromRequest(c *gin.Context, req *QuestionRequest, question *models.Question) bool {
	if req.CorrectAnswer < 0 || req.CorrectAnswer >= len(req.Options) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "correct_answer must index into options"})
		return false
	}

	var category models.Category
	if err := models.FindByID(s.db, req.CategoryID, &category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return false
	}

	question.Text = req.Text
	question.Options = req.Options
	question.CorrectAnswer = req.CorrectAnswer
	question.Explanation = req.Explanation
	question.CategoryID = req.CategoryID
	question.Image = req.Image
	if req.Difficulty != "" {
		question.Difficulty = req.Difficulty
	}
	if req.Points > 0 {
		question.Points = req.Points
	}
	if req.TimeLimit > 0 {
		question.TimeLimit = req.TimeLimit
	}
	return true
}

// @Summary List questions
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Question
// @Router /api/questions [get]
func (s *Server) listQuestions(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("Category")

	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list questions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, questions)
}

// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Router /api/questions [post]
func (s *Server) createQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	question := &models.Question{
		Difficulty:  "medium",
		Points:      10,
		TimeLimit:   60,
		CreatedByID: sessionData.UserID,
	}
	if !s.questionFromRequest(c, &req, question) {
		return
	}

	if err := s.db.Create(question).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	c.JSON(http.StatusCreated, question)
}

// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} models.Question
// @Router /api/questions/{id} [put]
func (s *Server) updateQuestion(c *gin.Context) {
	var question models.Question
	if err := models.FindByID(s.db, c.Param("id"), &question); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.questionFromRequest(c, &req, &question) {
		return
	}

	if err := s.db.Save(&question).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}

	c.JSON(http.StatusOK, question)
}

// @Summary Delete question
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204
// @Router /api/questions/{id} [delete]
func (s *Server) deleteQuestion(c *gin.Context) {
	var question models.Question
	if err := models.FindByID(s.db, c.Param("id"), &question); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&question).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.Status(http.StatusNoContent)
}
