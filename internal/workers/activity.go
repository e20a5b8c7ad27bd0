package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// HandleActivityDigest summarizes the audit trail since the last digest and
// publishes it as a system notification for administrators
func HandleActivityDigest(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	var settings models.Settings
	if err := db.WithContext(ctx).First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No settings found, skipping digest")
			return nil
		}
		return fmt.Errorf("failed to load settings: %w", err)
	}

	now := time.Now().UTC()
	since := now.Add(-24 * time.Hour)
	if settings.LastDigestAt != nil {
		since = *settings.LastDigestAt
	}

	var total int64
	if err := db.WithContext(ctx).Model(&models.AdminActivity{}).
		Where("created_at >= ?", since).
		Count(&total).Error; err != nil {
		return fmt.Errorf("failed to count activities: %w", err)
	}

	var byAction []struct {
		Action string
		Count  int64
	}
	db.WithContext(ctx).Model(&models.AdminActivity{}).
		Select("action, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("action").
		Order("count DESC").
		Scan(&byAction)

	message := fmt.Sprintf("%d admin actions since %s.", total, since.Format(time.RFC1123))
	for _, row := range byAction {
		message += fmt.Sprintf(" %s: %d.", row.Action, row.Count)
	}

	notification := models.Notification{
		Title:      "Admin activity digest",
		Message:    message,
		Type:       "system",
		Recipients: models.RecipientsAll,
		Priority:   "low",
		IsSent:     true,
		SentAt:     &now,
	}
	if err := db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create digest notification: %w", err)
	}

	updates := map[string]interface{}{
		"last_digest_at": now,
	}
	if next := nextDigestTime(settings.DigestSchedule, now); next != nil {
		updates["next_digest_at"] = next
	}
	if err := db.WithContext(ctx).Model(&settings).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update digest timestamps: %w", err)
	}

	logger.Info().
		Int64("activities", total).
		Time("since", since).
		Msg("Admin activity digest published")

	return nil
}

// HandleActivityPrune deletes audit rows older than the configured retention
func HandleActivityPrune(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	var settings models.Settings
	if err := db.WithContext(ctx).First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No settings found, skipping prune")
			return nil
		}
		return fmt.Errorf("failed to load settings: %w", err)
	}

	retentionDays := settings.ActivityRetentionDays
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	result := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AdminActivity{})
	if result.Error != nil {
		return fmt.Errorf("failed to prune activities: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info().
			Int64("deleted", result.RowsAffected).
			Time("cutoff", cutoff).
			Msg("Pruned old admin activities")
	}

	return nil
}

// nextDigestTime calculates the next digest run from a cron schedule
// (standard 5-field format: minute hour day-of-month month day-of-week)
func nextDigestTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
