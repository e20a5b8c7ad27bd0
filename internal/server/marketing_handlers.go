package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// CampaignRequest carries the writable campaign fields
type CampaignRequest struct {
	Name           string     `json:"name" binding:"required"`
	Description    string     `json:"description"`
	Type           string     `json:"type" binding:"omitempty,oneof=social search email affiliate influencer"`
	Status         string     `json:"status" binding:"omitempty,oneof=draft active paused completed"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	BudgetAmount   float64    `json:"budget_amount" binding:"min=0"`
	BudgetCurrency string     `json:"budget_currency"`
	ConversionGoal string     `json:"conversion_goal"`
	Commission     float64    `json:"commission" binding:"min=0"`
	CommissionType string     `json:"commission_type" binding:"omitempty,oneof=percentage fixed"`
	IsActive       *bool      `json:"is_active"`
}

// PixelRequest carries the writable pixel fields
type PixelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"required,oneof=meta google tiktok twitter custom"`
	PixelID     string `json:"pixel_id" binding:"required"`
	Status      string `json:"status" binding:"omitempty,oneof=active testing inactive"`

	TrackPageView       *bool `json:"track_page_view"`
	TrackRegistration   *bool `json:"track_registration"`
	TrackTestStart      *bool `json:"track_test_start"`
	TrackTestCompletion *bool `json:"track_test_completion"`
	TrackSubscription   *bool `json:"track_subscription"`
	TrackPurchase       *bool `json:"track_purchase"`

	IsActive *bool `json:"is_active"`
}

func (p *CampaignRequest) apply(campaign *models.Campaign) {
	campaign.Name = p.Name
	campaign.Description = p.Description
	campaign.BudgetAmount = p.BudgetAmount
	campaign.ConversionGoal = p.ConversionGoal
	campaign.Commission = p.Commission
	campaign.EndDate = p.EndDate
	if p.Type != "" {
		campaign.Type = p.Type
	}
	if p.Status != "" {
		campaign.Status = p.Status
	}
	if p.StartDate != nil {
		campaign.StartDate = *p.StartDate
	}
	if p.BudgetCurrency != "" {
		campaign.BudgetCurrency = p.BudgetCurrency
	}
	if p.CommissionType != "" {
		campaign.CommissionType = p.CommissionType
	}
	if p.IsActive != nil {
		campaign.IsActive = *p.IsActive
	}
}

func (p *PixelRequest) apply(pixel *models.Pixel) {
	pixel.Name = p.Name
	pixel.Description = p.Description
	pixel.Type = p.Type
	pixel.PixelID = p.PixelID
	if p.Status != "" {
		pixel.Status = p.Status
	}
	if p.TrackPageView != nil {
		pixel.TrackPageView = *p.TrackPageView
	}
	if p.TrackRegistration != nil {
		pixel.TrackRegistration = *p.TrackRegistration
	}
	if p.TrackTestStart != nil {
		pixel.TrackTestStart = *p.TrackTestStart
	}
	if p.TrackTestCompletion != nil {
		pixel.TrackTestCompletion = *p.TrackTestCompletion
	}
	if p.TrackSubscription != nil {
		pixel.TrackSubscription = *p.TrackSubscription
	}
	if p.TrackPurchase != nil {
		pixel.TrackPurchase = *p.TrackPurchase
	}
	if p.IsActive != nil {
		pixel.IsActive = *p.IsActive
	}
}

// generateTrackingCode returns a short, URL-safe campaign tracking code
func generateTrackingCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "iq_" + hex.EncodeToString(buf), nil
}

// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Campaign
// @Router /api/campaigns [get]
func (s *Server) listCampaigns(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("CreatedBy")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if campaignType := c.Query("type"); campaignType != "" {
		query = query.Where("type = ?", campaignType)
	}

	var campaigns []models.Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list campaigns")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Campaign
// @Router /api/campaigns [post]
func (s *Server) createCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trackingCode, err := generateTrackingCode()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate tracking code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}

	sessionData, _ := GetSessionData(c)

	campaign := &models.Campaign{
		Type:           "social",
		Status:         models.CampaignDraft,
		StartDate:      time.Now().UTC(),
		BudgetCurrency: "USD",
		CommissionType: "percentage",
		TrackingCode:   trackingCode,
		IsActive:       true,
		CreatedByID:    sessionData.UserID,
	}
	req.apply(campaign)

	if err := s.db.Create(campaign).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create campaign")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// @Summary Update campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Router /api/campaigns/{id} [put]
func (s *Server) updateCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := models.FindByID(s.db, c.Param("id"), &campaign); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find campaign")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.apply(&campaign)

	if err := s.db.Save(&campaign).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update campaign")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update campaign"})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// @Summary Delete campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 204
// @Router /api/campaigns/{id} [delete]
func (s *Server) deleteCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := models.FindByID(s.db, c.Param("id"), &campaign); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find campaign")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&campaign).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete campaign")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete campaign"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Campaign analytics overview
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/campaigns/analytics/overview [get]
func (s *Server) campaignAnalytics(c *gin.Context) {
	var total, active int64
	s.db.Model(&models.Campaign{}).Count(&total)
	s.db.Model(&models.Campaign{}).Where("status = ?", models.CampaignActive).Count(&active)

	var totals struct {
		Impressions *int64
		Clicks      *int64
		Conversions *int64
		Revenue     *float64
		Spent       *float64
	}
	s.db.Model(&models.Campaign{}).
		Select("SUM(impressions) as impressions, SUM(clicks) as clicks, SUM(conversions) as conversions, SUM(revenue) as revenue, SUM(budget_spent) as spent").
		Scan(&totals)

	overview := gin.H{
		"total_campaigns":  total,
		"active_campaigns": active,
		"impressions":      int64(0),
		"clicks":           int64(0),
		"conversions":      int64(0),
		"revenue":          0.0,
		"budget_spent":     0.0,
	}
	if totals.Impressions != nil {
		overview["impressions"] = *totals.Impressions
	}
	if totals.Clicks != nil {
		overview["clicks"] = *totals.Clicks
	}
	if totals.Conversions != nil {
		overview["conversions"] = *totals.Conversions
	}
	if totals.Revenue != nil {
		overview["revenue"] = *totals.Revenue
	}
	if totals.Spent != nil {
		overview["budget_spent"] = *totals.Spent
	}

	c.JSON(http.StatusOK, overview)
}

// @Summary List pixels
// @Tags pixels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Pixel
// @Router /api/pixels [get]
func (s *Server) listPixels(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("CreatedBy")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if pixelType := c.Query("type"); pixelType != "" {
		query = query.Where("type = ?", pixelType)
	}

	var pixels []models.Pixel
	if err := query.Find(&pixels).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list pixels")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, pixels)
}

// @Summary Create pixel
// @Tags pixels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Pixel
// @Router /api/pixels [post]
func (s *Server) createPixel(c *gin.Context) {
	var req PixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	pixel := &models.Pixel{
		Status:        models.PixelTesting,
		TrackPageView: true,
		IsActive:      true,
		CreatedByID:   sessionData.UserID,
	}
	req.apply(pixel)

	if err := s.db.Create(pixel).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create pixel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create pixel"})
		return
	}

	c.JSON(http.StatusCreated, pixel)
}

// @Summary Update pixel
// @Tags pixels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pixel ID"
// @Success 200 {object} models.Pixel
// @Router /api/pixels/{id} [put]
func (s *Server) updatePixel(c *gin.Context) {
	var pixel models.Pixel
	if err := models.FindByID(s.db, c.Param("id"), &pixel); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pixel not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find pixel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req PixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.apply(&pixel)

	if err := s.db.Save(&pixel).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update pixel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update pixel"})
		return
	}

	c.JSON(http.StatusOK, pixel)
}

// @Summary Delete pixel
// @Tags pixels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pixel ID"
// @Success 204
// @Router /api/pixels/{id} [delete]
func (s *Server) deletePixel(c *gin.Context) {
	var pixel models.Pixel
	if err := models.FindByID(s.db, c.Param("id"), &pixel); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pixel not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find pixel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&pixel).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete pixel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete pixel"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Pixel stats overview
// @Tags pixels
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/pixels/stats/overview [get]
func (s *Server) pixelStats(c *gin.Context) {
	var total, active, testing, inactive int64
	s.db.Model(&models.Pixel{}).Count(&total)
	s.db.Model(&models.Pixel{}).Where("status = ?", models.PixelActive).Count(&active)
	s.db.Model(&models.Pixel{}).Where("status = ?", models.PixelTesting).Count(&testing)
	s.db.Model(&models.Pixel{}).Where("status = ?", models.PixelInactive).Count(&inactive)

	var pixelTypes []struct {
		Type  string `json:"type"`
		Count int64  `json:"count"`
	}
	s.db.Model(&models.Pixel{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Order("count DESC").
		Scan(&pixelTypes)

	c.JSON(http.StatusOK, gin.H{
		"total_pixels":    total,
		"active_pixels":   active,
		"testing_pixels":  testing,
		"inactive_pixels": inactive,
		"pixel_types":     pixelTypes,
	})
}
