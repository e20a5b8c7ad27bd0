package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
	"github.com/iqtestim/iqadmin/internal/tasks"
)

// HandleNotificationDispatch delivers a notification to its recipient set and
// marks it sent. Safe to retry: an already-sent notification is a no-op.
func HandleNotificationDispatch(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	var notification models.Notification
	if err := db.WithContext(ctx).First(&notification, "id = ?", payload.NotificationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Deleted between enqueue and dispatch. Nothing to do.
			logger.Warn().
				Str("notification_id", payload.NotificationID).
				Msg("Notification no longer exists, skipping dispatch")
			return nil
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}

	if notification.IsSent {
		logger.Debug().
			Str("notification_id", notification.ID).
			Msg("Notification already sent, skipping")
		return nil
	}

	if notification.ExpiresAt != nil && notification.ExpiresAt.Before(time.Now()) {
		logger.Warn().
			Str("notification_id", notification.ID).
			Time("expires_at", *notification.ExpiresAt).
			Msg("Notification expired before dispatch, skipping")
		return nil
	}

	recipients, err := resolveRecipients(ctx, db, &notification)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	now := time.Now().UTC()
	result := db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND is_sent = ?", notification.ID, false).
		Updates(map[string]interface{}{
			"is_sent": true,
			"sent_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification sent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Another worker won the race
		logger.Debug().
			Str("notification_id", notification.ID).
			Msg("Notification was sent concurrently, skipping")
		return nil
	}

	activity := models.AdminActivity{
		ActorEmail: "system",
		Action:     "send",
		Resource:   "notifications",
		ResourceID: notification.ID,
	}
	if err := db.WithContext(ctx).Create(&activity).Error; err != nil {
		logger.Warn().Err(err).
			Str("notification_id", notification.ID).
			Msg("Failed to record dispatch activity")
	}

	logger.Info().
		Str("notification_id", notification.ID).
		Str("recipients", notification.Recipients).
		Int("recipient_count", len(recipients)).
		Msg("Notification dispatched")

	return nil
}

// resolveRecipients returns the user IDs the notification targets
func resolveRecipients(ctx context.Context, db *gorm.DB, notification *models.Notification) ([]string, error) {
	switch notification.Recipients {
	case models.RecipientsSpecific:
		return notification.UserIDs, nil

	case models.RecipientsCategory:
		// Users who completed a test in the category
		var userIDs []string
		err := db.WithContext(ctx).Model(&models.TestResult{}).
			Distinct("test_results.user_id").
			Joins("JOIN tests ON tests.id = test_results.test_id").
			Joins("JOIN categories ON categories.id = tests.category_id").
			Where("categories.name = ?", notification.Category).
			Pluck("test_results.user_id", &userIDs).Error
		if err != nil {
			return nil, err
		}
		return userIDs, nil

	default:
		var userIDs []string
		err := db.WithContext(ctx).Model(&models.User{}).
			Pluck("id", &userIDs).Error
		if err != nil {
			return nil, err
		}
		return userIDs, nil
	}
}
