package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/iqtestim/iqadmin/internal/models"
)

// SettingsRequest carries the mutable settings fields, all optional
type SettingsRequest struct {
	DigestSchedule        *string `json:"digest_schedule"`
	ActivityRetentionDays *int    `json:"activity_retention_days" binding:"omitempty,min=1,max=3650"`
}

// @Summary List admin activities
// @Tags admin-activities
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AdminActivity
// @Router /api/admin-activities [get]
func (s *Server) listAdminActivities(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	query := s.db.Order("created_at DESC").Limit(limit)

	if actorID := c.Query("actor_id"); actorID != "" {
		query = query.Where("actor_id = ?", actorID)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var activities []models.AdminActivity
	if err := query.Find(&activities).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list admin activities")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, activities)
}

// @Summary Admin activity dashboard stats
// @Tags admin-activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/admin-activities/stats/dashboard [get]
func (s *Server) activityDashboardStats(c *gin.Context) {
	now := time.Now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var total, lastDay, lastWeek int64
	s.db.Model(&models.AdminActivity{}).Count(&total)
	s.db.Model(&models.AdminActivity{}).Where("created_at >= ?", dayAgo).Count(&lastDay)
	s.db.Model(&models.AdminActivity{}).Where("created_at >= ?", weekAgo).Count(&lastWeek)

	var byResource []struct {
		Resource string `json:"resource"`
		Count    int64  `json:"count"`
	}
	s.db.Model(&models.AdminActivity{}).
		Select("resource, COUNT(*) as count").
		Where("created_at >= ?", weekAgo).
		Group("resource").
		Order("count DESC").
		Scan(&byResource)

	var topActors []struct {
		ActorEmail string `json:"actor_email"`
		Count      int64  `json:"count"`
	}
	s.db.Model(&models.AdminActivity{}).
		Select("actor_email, COUNT(*) as count").
		Where("created_at >= ?", weekAgo).
		Group("actor_email").
		Order("count DESC").
		Limit(5).
		Scan(&topActors)

	c.JSON(http.StatusOK, gin.H{
		"total_activities":  total,
		"last_24h":          lastDay,
		"last_7d":           lastWeek,
		"by_resource":       byResource,
		"most_active_users": topActors,
	})
}

// @Summary Dashboard overview
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/dashboard-overview [get]
func (s *Server) dashboardOverview(c *gin.Context) {
	var users, tests, questions, categories int64
	s.db.Model(&models.User{}).Count(&users)
	s.db.Model(&models.Test{}).Count(&tests)
	s.db.Model(&models.Question{}).Count(&questions)
	s.db.Model(&models.Category{}).Count(&categories)

	var activeSubscriptions int64
	s.db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionActive).
		Count(&activeSubscriptions)

	var revenue *float64
	s.db.Model(&models.Subscription{}).
		Select("SUM(subscription_plans.price)").
		Joins("JOIN subscription_plans ON subscription_plans.id = subscriptions.plan_id").
		Where("subscriptions.status IN ?", []string{models.SubscriptionActive, models.SubscriptionExpired}).
		Scan(&revenue)

	var resultsLastWeek int64
	weekAgo := time.Now().UTC().Add(-7 * 24 * time.Hour)
	s.db.Model(&models.TestResult{}).Where("created_at >= ?", weekAgo).Count(&resultsLastWeek)

	var activeCampaigns, activePixels int64
	s.db.Model(&models.Campaign{}).Where("status = ?", models.CampaignActive).Count(&activeCampaigns)
	s.db.Model(&models.Pixel{}).Where("status = ?", models.PixelActive).Count(&activePixels)

	totalRevenue := 0.0
	if revenue != nil {
		totalRevenue = *revenue
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":          users,
		"total_tests":          tests,
		"total_questions":      questions,
		"total_categories":     categories,
		"active_subscriptions": activeSubscriptions,
		"total_revenue":        totalRevenue,
		"results_last_7d":      resultsLastWeek,
		"active_campaigns":     activeCampaigns,
		"active_pixels":        activePixels,
	})
}

// @Summary Get settings
// @Tags config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Router /api/config [get]
func (s *Server) getSettings(c *gin.Context) {
	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary Update settings
// @Tags config
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Router /api/config [patch]
func (s *Server) updateSettings(c *gin.Context) {
	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DigestSchedule != nil {
		schedule := *req.DigestSchedule
		if schedule == "" {
			settings.DigestSchedule = ""
			settings.NextDigestAt = nil
		} else {
			parsed, err := cron.ParseStandard(schedule)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron expression: " + err.Error()})
				return
			}
			next := parsed.Next(time.Now().UTC())
			settings.DigestSchedule = schedule
			settings.NextDigestAt = &next
		}
	}
	if req.ActivityRetentionDays != nil {
		settings.ActivityRetentionDays = *req.ActivityRetentionDays
	}

	if err := s.db.Save(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}
