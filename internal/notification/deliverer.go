package notification

import (
	"context"

	"interview_portal_backend/platform/logger"
)

// LogDeliverer writes each message to the log. It is the default until a
// real channel is configured.
type LogDeliverer struct {
	log *logger.Logger
}

func NewLogDeliverer(log *logger.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (d *LogDeliverer) Deliver(ctx context.Context, msg Message) error {
	d.log.WithContext(ctx).Info("notification delivered",
		"outboxId", msg.OutboxID.String(),
		"topic", msg.Topic,
		"noticeId", msg.NoticeID,
		"contactId", msg.ContactID,
		"expertId", msg.Contact.ExpertID,
		"appointmentStatus", msg.Contact.AppointmentStatus,
		"attempt", msg.Attempt,
	)
	return nil
}
