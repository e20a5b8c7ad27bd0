package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
	"github.com/iqtestim/iqadmin/internal/tasks"
)

// NotificationRequest carries the writable notification fields
type NotificationRequest struct {
	Title      string   `json:"title" binding:"required"`
	Message    string   `json:"message" binding:"required"`
	Type       string   `json:"type" binding:"omitempty,oneof=info success warning error promotion test_result system"`
	Recipients string   `json:"recipients" binding:"omitempty,oneof=all specific category"`
	UserIDs    []string `json:"user_ids"`
	Category   string   `json:"category"`
	Priority   string   `json:"priority" binding:"omitempty,oneof=low medium high"`

	ScheduledFor *time.Time `json:"scheduled_for"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ActionURL    string     `json:"action_url" binding:"omitempty,url"`
	ActionText   string     `json:"action_text"`
}

// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /api/notifications [get]
func (s *Server) listNotifications(c *gin.Context) {
	query := s.db.Order("created_at DESC").Preload("CreatedBy")

	if sent := c.Query("sent"); sent == "true" {
		query = query.Where("is_sent = ?", true)
	} else if sent == "false" {
		query = query.Where("is_sent = ?", false)
	}
	if notificationType := c.Query("type"); notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// @Summary Create notification
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Notification
// @Router /api/notifications [post]
func (s *Server) createNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Recipients == models.RecipientsSpecific && len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required when recipients is 'specific'"})
		return
	}
	if req.Recipients == models.RecipientsCategory && req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required when recipients is 'category'"})
		return
	}
	if req.ScheduledFor != nil && req.ScheduledFor.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_for must be in the future"})
		return
	}

	sessionData, _ := GetSessionData(c)

	notification := &models.Notification{
		Title:        req.Title,
		Message:      req.Message,
		Type:         "info",
		Recipients:   models.RecipientsAll,
		UserIDs:      req.UserIDs,
		Category:     req.Category,
		Priority:     "medium",
		ScheduledFor: req.ScheduledFor,
		ExpiresAt:    req.ExpiresAt,
		ActionURL:    req.ActionURL,
		ActionText:   req.ActionText,
		CreatedByID:  sessionData.UserID,
	}
	if req.Type != "" {
		notification.Type = req.Type
	}
	if req.Recipients != "" {
		notification.Recipients = req.Recipients
	}
	if req.Priority != "" {
		notification.Priority = req.Priority
	}

	if err := s.db.Create(notification).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	c.JSON(http.StatusCreated, notification)
}

// @Summary Send notification now
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 202 {object} models.Notification
// @Router /api/notifications/{id}/send [post]
func (s *Server) sendNotification(c *gin.Context) {
	var notification models.Notification
	if err := models.FindByID(s.db, c.Param("id"), &notification); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if notification.IsSent {
		c.JSON(http.StatusConflict, gin.H{"error": "Notification has already been sent"})
		return
	}

	task, err := tasks.NewNotificationDispatchTask(notification.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create dispatch task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	info, err := s.asynqClient.Enqueue(task)
	if err != nil {
		s.logger.Error().Err(err).Str("notification_id", notification.ID).Msg("Failed to enqueue dispatch task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	s.logger.Info().
		Str("notification_id", notification.ID).
		Str("task_id", info.ID).
		Msg("Notification dispatch enqueued")

	c.JSON(http.StatusAccepted, notification)
}

// @Summary Delete notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Router /api/notifications/{id} [delete]
func (s *Server) deleteNotification(c *gin.Context) {
	var notification models.Notification
	if err := models.FindByID(s.db, c.Param("id"), &notification); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&notification).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Notification stats overview
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications/stats/overview [get]
func (s *Server) notificationStats(c *gin.Context) {
	var total, sent, scheduled int64
	s.db.Model(&models.Notification{}).Count(&total)
	s.db.Model(&models.Notification{}).Where("is_sent = ?", true).Count(&sent)
	s.db.Model(&models.Notification{}).
		Where("is_sent = ? AND scheduled_for IS NOT NULL", false).
		Count(&scheduled)

	var byType []struct {
		Type  string `json:"type"`
		Count int64  `json:"count"`
	}
	s.db.Model(&models.Notification{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Order("count DESC").
		Scan(&byType)

	c.JSON(http.StatusOK, gin.H{
		"total_notifications": total,
		"sent":                sent,
		"scheduled":           scheduled,
		"pending":             total - sent,
		"by_type":             byType,
	})
}
