package workers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
	"github.com/iqtestim/iqadmin/internal/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "workers.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestNotificationDispatchMarksSent(t *testing.T) {
	db := newTestDB(t)

	notification := models.Notification{
		Title:      "Maintenance window",
		Message:    "The console goes offline at midnight",
		Type:       "warning",
		Recipients: models.RecipientsAll,
		Priority:   "high",
	}
	if err := db.Create(&notification).Error; err != nil {
		t.Fatal(err)
	}

	task, err := tasks.NewNotificationDispatchTask(notification.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	var got models.Notification
	if err := db.First(&got, "id = ?", notification.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !got.IsSent {
		t.Error("notification should be marked sent")
	}
	if got.SentAt == nil {
		t.Error("sent_at should be set")
	}
}

func TestNotificationDispatchIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	notification := models.Notification{
		Title:      "Once only",
		Message:    "Should not be re-sent",
		Type:       "info",
		Recipients: models.RecipientsAll,
		Priority:   "medium",
	}
	if err := db.Create(&notification).Error; err != nil {
		t.Fatal(err)
	}

	task, err := tasks.NewNotificationDispatchTask(notification.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	var first models.Notification
	if err := db.First(&first, "id = ?", notification.ID).Error; err != nil {
		t.Fatal(err)
	}

	// A retry after a crashed ack must not error or change the record
	if err := HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatalf("retry should be a no-op, got %v", err)
	}

	var second models.Notification
	if err := db.First(&second, "id = ?", notification.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !second.SentAt.Equal(*first.SentAt) {
		t.Errorf("sent_at changed on retry: %v vs %v", second.SentAt, first.SentAt)
	}
}

func TestNotificationDispatchSkipsMissing(t *testing.T) {
	db := newTestDB(t)

	task, err := tasks.NewNotificationDispatchTask("does-not-exist")
	if err != nil {
		t.Fatal(err)
	}

	if err := HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Errorf("missing notification should not fail the task: %v", err)
	}
}

func TestNotificationDispatchSkipsExpired(t *testing.T) {
	db := newTestDB(t)

	expired := time.Now().UTC().Add(-time.Hour)
	notification := models.Notification{
		Title:      "Old promo",
		Message:    "Sale ended yesterday",
		Type:       "promotion",
		Recipients: models.RecipientsAll,
		Priority:   "low",
		ExpiresAt:  &expired,
	}
	if err := db.Create(&notification).Error; err != nil {
		t.Fatal(err)
	}

	task, err := tasks.NewNotificationDispatchTask(notification.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	var got models.Notification
	if err := db.First(&got, "id = ?", notification.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.IsSent {
		t.Error("expired notification must not be marked sent")
	}
}

func TestResolveRecipientsSpecific(t *testing.T) {
	db := newTestDB(t)

	notification := &models.Notification{
		Recipients: models.RecipientsSpecific,
		UserIDs:    []string{"u1", "u2"},
	}

	got, err := resolveRecipients(context.Background(), db, notification)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "u1" || got[1] != "u2" {
		t.Errorf("unexpected recipients: %v", got)
	}
}

func TestActivityDigestPublishesNotification(t *testing.T) {
	db := newTestDB(t)

	settings := models.Settings{
		JWTSecret:             "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		DigestSchedule:        "0 8 * * *",
		ActivityRetentionDays: 90,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatal(err)
	}

	activities := []models.AdminActivity{
		{ActorID: "a1", ActorEmail: "admin@example.com", Action: "create", Resource: "tests"},
		{ActorID: "a1", ActorEmail: "admin@example.com", Action: "create", Resource: "questions"},
		{ActorID: "a2", ActorEmail: "other@example.com", Action: "delete", Resource: "users"},
	}
	for i := range activities {
		if err := db.Create(&activities[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	task, err := tasks.NewActivityDigestTask()
	if err != nil {
		t.Fatal(err)
	}
	if err := HandleActivityDigest(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatalf("digest failed: %v", err)
	}

	var digest models.Notification
	if err := db.First(&digest, "type = ?", "system").Error; err != nil {
		t.Fatalf("expected a digest notification: %v", err)
	}
	if !digest.IsSent {
		t.Error("digest should be pre-marked sent")
	}

	var updated models.Settings
	if err := db.First(&updated).Error; err != nil {
		t.Fatal(err)
	}
	if updated.LastDigestAt == nil {
		t.Error("last_digest_at should be set")
	}
	if updated.NextDigestAt == nil {
		t.Error("next_digest_at should be recomputed from the schedule")
	}
}

func TestActivityPruneRespectsRetention(t *testing.T) {
	db := newTestDB(t)

	settings := models.Settings{
		JWTSecret:             "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		ActivityRetentionDays: 30,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatal(err)
	}

	old := models.AdminActivity{ActorID: "a1", Action: "delete", Resource: "users"}
	if err := db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}
	staleDate := time.Now().UTC().AddDate(0, 0, -60)
	if err := db.Model(&models.AdminActivity{}).Where("id = ?", old.ID).
		Update("created_at", staleDate).Error; err != nil {
		t.Fatal(err)
	}

	recent := models.AdminActivity{ActorID: "a1", Action: "create", Resource: "tests"}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatal(err)
	}

	task, err := tasks.NewActivityPruneTask()
	if err != nil {
		t.Fatal(err)
	}
	if err := HandleActivityPrune(context.Background(), task, db, zerolog.Nop()); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.AdminActivity{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining activity, got %d", count)
	}
}

func TestNextDigestTime(t *testing.T) {
	from := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

	next := nextDigestTime("0 8 * * *", from)
	if next == nil {
		t.Fatal("expected a next run time")
	}
	want := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	if nextDigestTime("", from) != nil {
		t.Error("empty schedule should yield nil")
	}
	if nextDigestTime("not a cron", from) != nil {
		t.Error("invalid schedule should yield nil")
	}
}
