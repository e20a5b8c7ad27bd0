package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Notification delivery
	TypeNotificationDispatch = "notification:dispatch"

	// Admin activity maintenance (scheduled)
	TypeActivityDigest = "activity:digest"
	TypeActivityPrune  = "activity:prune"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	NotificationID string `json:"notification_id,omitempty"`
}

// NewNotificationDispatchTask creates a task to deliver a notification to its recipients
func NewNotificationDispatchTask(notificationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		NotificationID: notificationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationDispatch, payload), nil
}

// NewActivityDigestTask creates a task to compute the periodic admin activity digest
func NewActivityDigestTask() (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeActivityDigest, payload), nil
}

// NewActivityPruneTask creates a task to delete admin activity rows past retention
func NewActivityPruneTask() (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeActivityPrune, payload), nil
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
