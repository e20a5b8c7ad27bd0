package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// TestResultAnalytics is the overview payload for the results screen
type TestResultAnalytics struct {
	TotalResults   int64   `json:"total_results"`
	AverageScore   float64 `json:"average_score"`
	UniqueUsers    int64   `json:"unique_users"`
	ResultsPerTest []struct {
		TestID string `json:"test_id"`
		Title  string `json:"title"`
		Count  int64  `json:"count"`
	} `json:"results_per_test"`
}

// @Summary List test results
// @Tags test-results
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.TestResult
// @Router /api/test-results [get]
func (s *Server) listTestResults(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("User").Preload("Test")

	if testID := c.Query("test"); testID != "" {
		query = query.Where("test_id = ?", testID)
	}
	if userID := c.Query("user"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var results []models.TestResult
	if err := query.Limit(500).Find(&results).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list test results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// @Summary Test result analytics overview
// @Tags test-results
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TestResultAnalytics
// @Router /api/test-results/analytics/overview [get]
func (s *Server) testResultAnalytics(c *gin.Context) {
	var overview TestResultAnalytics

	if err := s.db.Model(&models.TestResult{}).Count(&overview.TotalResults).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count test results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var avg *float64
	if err := s.db.Model(&models.TestResult{}).Select("AVG(score)").Scan(&avg).Error; err == nil && avg != nil {
		overview.AverageScore = *avg
	}

	s.db.Model(&models.TestResult{}).Distinct("user_id").Count(&overview.UniqueUsers)

	if err := s.db.Model(&models.TestResult{}).
		Select("test_results.test_id, tests.title, COUNT(*) as count").
		Joins("JOIN tests ON tests.id = test_results.test_id").
		Group("test_results.test_id, tests.title").
		Order("count DESC").
		Limit(10).
		Scan(&overview.ResultsPerTest).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate results per test")
	}

	c.JSON(http.StatusOK, overview)
}

// @Summary Delete test result
// @Tags test-results
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Success 204
// @Router /api/test-results/{id} [delete]
func (s *Server) deleteTestResult(c *gin.Context) {
	var result models.TestResult
	if err := models.FindByID(s.db, c.Param("id"), &result); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Result not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find test result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&result).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete test result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete test result"})
		return
	}

	c.Status(http.StatusNoContent)
}
