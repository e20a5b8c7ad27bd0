package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
	"github.com/iqtestim/iqadmin/internal/tasks"
)

// StartScheduler runs a periodic check (every minute) for due scheduled
// notifications and due activity digests, and enqueues a daily prune
func StartScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	var lastPrune time.Time

	// Run immediately on startup, then every minute
	runScheduledChecks(client, db, logger, &lastPrune)

	for range ticker.C {
		runScheduledChecks(client, db, logger, &lastPrune)
	}
}

func runScheduledChecks(client *asynq.Client, db *gorm.DB, logger zerolog.Logger, lastPrune *time.Time) {
	now := time.Now().UTC()

	enqueueDueNotifications(client, db, logger, now)
	enqueueDueDigest(client, db, logger, now)

	// Prune at most once a day
	if now.Sub(*lastPrune) >= 24*time.Hour {
		task, err := tasks.NewActivityPruneTask()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create prune task")
			return
		}
		if _, err := client.Enqueue(task, asynq.Queue("low")); err != nil {
			logger.Error().Err(err).Msg("Failed to enqueue prune task")
			return
		}
		*lastPrune = now
		logger.Debug().Msg("Activity prune enqueued")
	}
}

func enqueueDueNotifications(client *asynq.Client, db *gorm.DB, logger zerolog.Logger, now time.Time) {
	var notifications []models.Notification
	err := db.
		Where("is_sent = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", false, now).
		Find(&notifications).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query scheduled notifications")
		return
	}

	for _, notification := range notifications {
		if !notification.Due(now) {
			continue
		}

		task, err := tasks.NewNotificationDispatchTask(notification.ID)
		if err != nil {
			logger.Error().
				Err(err).
				Str("notification_id", notification.ID).
				Msg("Failed to create dispatch task")
			continue
		}

		if _, err := client.Enqueue(task); err != nil {
			logger.Error().
				Err(err).
				Str("notification_id", notification.ID).
				Msg("Failed to enqueue dispatch task")
			continue
		}

		logger.Info().
			Str("notification_id", notification.ID).
			Time("scheduled_for", *notification.ScheduledFor).
			Msg("Scheduled notification dispatch enqueued")
	}
}

func enqueueDueDigest(client *asynq.Client, db *gorm.DB, logger zerolog.Logger, now time.Time) {
	var settings models.Settings
	if err := db.First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No settings found, skipping digest check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query settings for digest")
		return
	}

	if settings.DigestSchedule == "" {
		return
	}
	if settings.NextDigestAt == nil || settings.NextDigestAt.After(now) {
		return
	}

	task, err := tasks.NewActivityDigestTask()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create digest task")
		return
	}
	if _, err := client.Enqueue(task); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue digest task")
		return
	}

	// Advance NextDigestAt immediately so the check does not re-fire every
	// minute while the digest runs
	if next := nextDigestTime(settings.DigestSchedule, now); next != nil {
		if err := db.Model(&settings).Update("next_digest_at", next).Error; err != nil {
			logger.Error().Err(err).Msg("Failed to update next_digest_at")
		}
	}

	logger.Info().
		Str("digest_schedule", settings.DigestSchedule).
		Msg("Activity digest enqueued")
}
