package scheduler

import (
	"context"
	"fmt"

	"interview_portal_backend/internal/events"
	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/platform/apperr"
	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ContactLookup reloads a contact when a reminder fires.
type ContactLookup interface {
	GetContact(ctx context.Context, id int64) (*domain.Contact, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	contacts ContactLookup
	bus      events.Bus
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, contacts ContactLookup, bus events.Bus, log *logger.Logger) (*Worker, error) {
	opt, queue, err := clientOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := newWorker(contacts, bus, log)
	w.server = server
	return w, nil
}

func newWorker(contacts ContactLookup, bus events.Bus, log *logger.Logger) *Worker {
	w := &Worker{
		mux:      asynq.NewServeMux(),
		contacts: contacts,
		bus:      bus,
		log:      log,
	}
	w.mux.HandleFunc(TaskRdvReminder, w.handleRdvReminder)
	w.mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	return w.bus.PublishSync(ctx, events.NotificationOutboxDue{
		BaseEvent: events.NewBaseEvent(),
		OutboxID:  outboxID,
	})
}

// handleRdvReminder fires the reminder only if the contact still holds the
// RDV the task was scheduled for. Cancelled, re-proposed and rescheduled
// RDVs are dropped silently.
func (w *Worker) handleRdvReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRdvReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	contact, err := w.contacts.GetContact(ctx, payload.ContactID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Info("rdv reminder dropped, contact gone", "contactId", payload.ContactID)
			return nil
		}
		return err
	}

	if contact.AppointmentStatus != domain.AppointmentStatusAccepted &&
		contact.AppointmentStatus != domain.AppointmentStatusConfirmed {
		w.log.Info("rdv reminder dropped, rdv no longer active",
			"contactId", contact.ID,
			"appointmentStatus", contact.AppointmentStatus,
		)
		return nil
	}
	if contact.ScheduledSlot() != payload.ScheduledAt || contact.ScheduledAt == nil {
		w.log.Info("rdv reminder dropped, rdv rescheduled",
			"contactId", contact.ID,
			"scheduledAt", contact.ScheduledSlot(),
			"reminderFor", payload.ScheduledAt,
		)
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.RdvReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		NoticeID:    contact.NoticeID,
		ContactID:   contact.ID,
		ExpertID:    contact.ExpertID,
		ScheduledAt: *contact.ScheduledAt,
	})
}
