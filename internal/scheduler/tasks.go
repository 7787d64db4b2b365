package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRdvReminder = "investigations.rdv_reminder"

const TaskNotificationOutboxDue = "notification.outbox.due"

// RdvReminderPayload identifies the RDV a reminder was scheduled for.
// ScheduledAt is the slot string, so a rescheduled RDV no longer matches.
type RdvReminderPayload struct {
	ContactID   int64  `json:"contactId"`
	ScheduledAt string `json:"scheduledAt"`
}

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewRdvReminderTask(payload RdvReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRdvReminder, data), nil
}

func ParseRdvReminderPayload(task *asynq.Task) (RdvReminderPayload, error) {
	var payload RdvReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RdvReminderPayload{}, err
	}
	return payload, nil
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}
