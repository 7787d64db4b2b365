// Package notification turns contact changes into outbox records and hands
// due records to a Deliverer. Scheduling code only sees the Notify call.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"interview_portal_backend/internal/events"
	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/notification/outbox"
	"interview_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	// TopicRdvReminder is used for reminders raised by the scheduler.
	TopicRdvReminder = "rdv.reminder"

	invalidPayloadPrefix   = "invalid payload: "
	maxOutboxRetryAttempts = 5
	outboxRetryBaseDelay   = time.Minute
	outboxRetryMaxDelay    = 60 * time.Minute
)

// OutboxStore is the part of the outbox repository the module uses.
type OutboxStore interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error
}

// ContactSnapshot is the contact state captured when the notification was raised.
type ContactSnapshot struct {
	ContactID         int64    `json:"contactId"`
	NoticeID          int64    `json:"noticeId"`
	JournalistID      int64    `json:"journalistId"`
	ExpertID          int64    `json:"expertId"`
	ResponseStatus    string   `json:"responseStatus"`
	AppointmentStatus string   `json:"appointmentStatus"`
	AppointmentKind   string   `json:"appointmentKind,omitempty"`
	ProposedSlots     []string `json:"proposedSlots,omitempty"`
	ScheduledAt       string   `json:"scheduledAt,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	VideoLink         string   `json:"videoLink,omitempty"`
	Version           int      `json:"version"`
}

// NewContactSnapshot copies the fields recipients need.
func NewContactSnapshot(c domain.Contact) ContactSnapshot {
	return ContactSnapshot{
		ContactID:         c.ID,
		NoticeID:          c.NoticeID,
		JournalistID:      c.JournalistID,
		ExpertID:          c.ExpertID,
		ResponseStatus:    string(c.ResponseStatus),
		AppointmentStatus: string(c.AppointmentStatus),
		AppointmentKind:   string(c.AppointmentKind),
		ProposedSlots:     c.ProposedSlots,
		ScheduledAt:       c.ScheduledSlot(),
		Phone:             c.Phone,
		VideoLink:         c.VideoLink,
		Version:           c.Version,
	}
}

// Message is what a Deliverer receives for one outbox record.
type Message struct {
	OutboxID  uuid.UUID
	Topic     string
	NoticeID  int64
	ContactID int64
	Attempt   int
	Contact   ContactSnapshot
}

// Deliverer sends a message over some channel.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Module owns the outbox side of notifications.
type Module struct {
	outbox    OutboxStore
	deliverer Deliverer
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the notification module. A nil deliverer falls back to LogDeliverer.
func New(store OutboxStore, deliverer Deliverer, log *logger.Logger) *Module {
	if log == nil {
		log = logger.Discard()
	}
	if deliverer == nil {
		deliverer = NewLogDeliverer(log)
	}
	return &Module{
		outbox:    store,
		deliverer: deliverer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify records a notification for topic. Failures are logged only.
func (m *Module) Notify(ctx context.Context, topic string, contact domain.Contact) {
	if topic == "" {
		return
	}
	if m.outbox == nil {
		m.log.Debug("notification outbox not configured; notify skipped", "topic", topic, "contactId", contact.ID)
		return
	}

	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		NoticeID:  contact.NoticeID,
		ContactID: contact.ID,
		Topic:     topic,
		Payload:   NewContactSnapshot(contact),
		RunAt:     m.now(),
	})
	if err != nil {
		m.log.Error("failed to enqueue notification", "topic", topic, "contactId", contact.ID, "error", err)
		return
	}

	m.log.Info("notification enqueued", "outboxId", id.String(), "topic", topic, "contactId", contact.ID)
	if m.bus != nil {
		m.bus.Publish(ctx, events.NotificationRequested{
			BaseEvent: events.NewBaseEvent(),
			OutboxID:  id,
			Topic:     topic,
			ContactID: contact.ID,
		})
	}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.bus = bus
	bus.Subscribe(events.RdvReminderDue{}.EventName(), m)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.RdvReminderDue:
		return m.handleRdvReminderDue(ctx, e)
	case events.NotificationOutboxDue:
		return m.handleNotificationOutboxDue(ctx, e)
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
		return nil
	}
}

type reminderPayload struct {
	ContactSnapshot
	Reminder bool `json:"reminder"`
}

func (m *Module) handleRdvReminderDue(ctx context.Context, e events.RdvReminderDue) error {
	if m.outbox == nil {
		return errors.New("notification outbox not configured")
	}

	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		NoticeID:  e.NoticeID,
		ContactID: e.ContactID,
		Topic:     TopicRdvReminder,
		Payload: reminderPayload{
			ContactSnapshot: ContactSnapshot{
				ContactID:   e.ContactID,
				NoticeID:    e.NoticeID,
				ExpertID:    e.ExpertID,
				ScheduledAt: domain.FormatSlot(e.ScheduledAt),
			},
			Reminder: true,
		},
		RunAt: m.now(),
	})
	if err != nil {
		m.log.Error("failed to enqueue rdv reminder", "contactId", e.ContactID, "error", err)
		return err
	}
	m.log.Info("rdv reminder enqueued", "contactId", e.ContactID, "scheduledAt", e.ScheduledAt)
	return nil
}

func (m *Module) handleNotificationOutboxDue(ctx context.Context, e events.NotificationOutboxDue) error {
	if m.outbox == nil {
		m.log.Debug("notification outbox not configured; skipping outbox due event", "outboxId", e.OutboxID)
		return nil
	}

	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		m.log.Error("failed to load outbox record", "outboxId", e.OutboxID, "error", err)
		return err
	}
	if rec.Status == outbox.StatusSucceeded || rec.Status == outbox.StatusFailed {
		m.log.Debug("outbox record already finished; skipping", "outboxId", rec.ID.String(), "status", rec.Status)
		return nil
	}
	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	var snapshot ContactSnapshot
	if err := json.Unmarshal(rec.Payload, &snapshot); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, invalidPayloadPrefix+err.Error())
		m.log.Warn("outbox record has invalid payload", "outboxId", rec.ID.String(), "error", err)
		return nil
	}

	msg := Message{
		OutboxID:  rec.ID,
		Topic:     rec.Topic,
		NoticeID:  rec.NoticeID,
		ContactID: rec.ContactID,
		Attempt:   rec.Attempts + 1,
		Contact:   snapshot,
	}
	// Retries go through the outbox, never the task queue.
	if err := m.deliverer.Deliver(ctx, msg); err != nil {
		m.handleDeliveryError(ctx, rec, err)
		return nil
	}

	if err := m.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
		return err
	}
	m.log.Info("outbox record delivered", "outboxId", rec.ID.String(), "topic", rec.Topic)
	return nil
}

func (m *Module) handleDeliveryError(ctx context.Context, rec outbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Warn("notification outbox exhausted retries",
			"outboxId", rec.ID.String(),
			"topic", rec.Topic,
			"attempt", attempt,
			"error", deliveryErr,
		)
		return
	}

	retryAt := m.now().Add(computeRetryDelay(attempt))
	if err := m.outbox.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Error("notification outbox retry scheduling failed; marked failed", "outboxId", rec.ID.String(), "error", err)
		return
	}
	m.log.Warn("notification outbox scheduled retry", "outboxId", rec.ID.String(), "attempt", attempt, "retryAt", retryAt, "error", deliveryErr)
}

func computeRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		return outboxRetryMaxDelay
	}
	return delay
}
