package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// PlanRequest carries the writable subscription plan fields
type PlanRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"min=0"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"duration_days" binding:"omitempty,min=1"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"is_active"`
	SortOrder    int      `json:"sort_order"`
}

// SubscriptionRequest carries the writable subscription fields
type SubscriptionRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	PlanID    string     `json:"plan_id" binding:"required"`
	Status    string     `json:"status" binding:"omitempty,oneof=active cancelled expired"`
	StartsAt  *time.Time `json:"starts_at"`
	AutoRenew *bool      `json:"auto_renew"`
}

// @Summary List subscription plans
// @Tags subscription-plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SubscriptionPlan
// @Router /api/subscription-plans [get]
func (s *Server) listSubscriptionPlans(c *gin.Context) {
	query := s.db.Order("sort_order ASC, created_at DESC")

	if isActive := c.Query("isActive"); isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var plans []models.SubscriptionPlan
	if err := query.Find(&plans).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

// @Summary Create subscription plan
// @Tags subscription-plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.SubscriptionPlan
// @Router /api/subscription-plans [post]
func (s *Server) createSubscriptionPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := &models.SubscriptionPlan{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		DurationDays: 30,
		Features:     req.Features,
		IsActive:     true,
		SortOrder:    req.SortOrder,
	}
	if req.Currency != "" {
		plan.Currency = req.Currency
	}
	if req.DurationDays > 0 {
		plan.DurationDays = req.DurationDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.db.Create(plan).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// @Summary Update subscription plan
// @Tags subscription-plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} models.SubscriptionPlan
// @Router /api/subscription-plans/{id} [put]
func (s *Server) updateSubscriptionPlan(c *gin.Context) {
	var plan models.SubscriptionPlan
	if err := models.FindByID(s.db, c.Param("id"), &plan); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan.Name = req.Name
	plan.Description = req.Description
	plan.Price = req.Price
	plan.Features = req.Features
	plan.SortOrder = req.SortOrder
	if req.Currency != "" {
		plan.Currency = req.Currency
	}
	if req.DurationDays > 0 {
		plan.DurationDays = req.DurationDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.db.Save(&plan).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// @Summary Delete subscription plan
// @Description Fails while subscriptions still reference the plan
// @Tags subscription-plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204
// @Router /api/subscription-plans/{id} [delete]
func (s *Server) deleteSubscriptionPlan(c *gin.Context) {
	planID := c.Param("id")

	var plan models.SubscriptionPlan
	if err := models.FindByID(s.db, planID, &plan); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var inUse int64
	if err := s.db.Model(&models.Subscription{}).Where("plan_id = ?", planID).Count(&inUse).Error; err == nil && inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Plan still has subscriptions"})
		return
	}

	if err := s.db.Delete(&plan).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete plan"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Subscription plan analytics overview
// @Tags subscription-plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/subscription-plans/analytics/overview [get]
func (s *Server) subscriptionPlanAnalytics(c *gin.Context) {
	var total, active int64
	s.db.Model(&models.SubscriptionPlan{}).Count(&total)
	s.db.Model(&models.SubscriptionPlan{}).Where("is_active = ?", true).Count(&active)

	var subscribersPerPlan []struct {
		PlanID string `json:"plan_id"`
		Name   string `json:"name"`
		Count  int64  `json:"count"`
	}
	s.db.Model(&models.Subscription{}).
		Select("subscriptions.plan_id, subscription_plans.name, COUNT(*) as count").
		Joins("JOIN subscription_plans ON subscription_plans.id = subscriptions.plan_id").
		Where("subscriptions.status = ?", models.SubscriptionActive).
		Group("subscriptions.plan_id, subscription_plans.name").
		Order("count DESC").
		Scan(&subscribersPerPlan)

	c.JSON(http.StatusOK, gin.H{
		"total_plans":          total,
		"active_plans":         active,
		"subscribers_per_plan": subscribersPerPlan,
	})
}

// @Summary List subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Subscription
// @Router /api/subscriptions [get]
func (s *Server) listSubscriptions(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("User").Preload("Plan")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var subscriptions []models.Subscription
	if err := query.Find(&subscriptions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list subscriptions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, subscriptions)
}

// @Summary Create subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Subscription
// @Router /api/subscriptions [post]
func (s *Server) createSubscription(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, req.UserID, &user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown user"})
		return
	}

	var plan models.SubscriptionPlan
	if err := models.FindByID(s.db, req.PlanID, &plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	startsAt := time.Now().UTC()
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}
	endsAt := startsAt.AddDate(0, 0, plan.DurationDays)

	subscription := &models.Subscription{
		UserID:   req.UserID,
		PlanID:   req.PlanID,
		Status:   models.SubscriptionActive,
		StartsAt: startsAt,
		EndsAt:   &endsAt,
	}
	if req.Status != "" {
		subscription.Status = req.Status
	}
	if req.AutoRenew != nil {
		subscription.AutoRenew = *req.AutoRenew
	}

	if err := s.db.Create(subscription).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		return
	}

	c.JSON(http.StatusCreated, subscription)
}

// @Summary Update subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} models.Subscription
// @Router /api/subscriptions/{id} [put]
func (s *Server) updateSubscription(c *gin.Context) {
	var subscription models.Subscription
	if err := models.FindByID(s.db, c.Param("id"), &subscription); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != "" {
		subscription.Status = req.Status
	}
	if req.StartsAt != nil {
		subscription.StartsAt = *req.StartsAt
	}
	if req.AutoRenew != nil {
		subscription.AutoRenew = *req.AutoRenew
	}

	if err := s.db.Save(&subscription).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// @Summary Delete subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 204
// @Router /api/subscriptions/{id} [delete]
func (s *Server) deleteSubscription(c *gin.Context) {
	var subscription models.Subscription
	if err := models.FindByID(s.db, c.Param("id"), &subscription); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&subscription).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Subscription analytics overview
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/subscriptions/analytics/overview [get]
func (s *Server) subscriptionAnalytics(c *gin.Context) {
	var total, active, cancelled, expired int64
	s.db.Model(&models.Subscription{}).Count(&total)
	s.db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionActive).Count(&active)
	s.db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionCancelled).Count(&cancelled)
	s.db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionExpired).Count(&expired)

	var revenue *float64
	s.db.Model(&models.Subscription{}).
		Select("SUM(subscription_plans.price)").
		Joins("JOIN subscription_plans ON subscription_plans.id = subscriptions.plan_id").
		Where("subscriptions.status = ?", models.SubscriptionActive).
		Scan(&revenue)

	overview := gin.H{
		"total_subscriptions":     total,
		"active_subscriptions":    active,
		"cancelled_subscriptions": cancelled,
		"expired_subscriptions":   expired,
		"monthly_revenue":         0.0,
	}
	if revenue != nil {
		overview["monthly_revenue"] = *revenue
	}

	c.JSON(http.StatusOK, overview)
}
