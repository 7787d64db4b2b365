package service

import (
	"context"
	"errors"
	"time"

	"interview_portal_backend/internal/events"
	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/investigations/repository"
	"interview_portal_backend/internal/scheduler"
	"interview_portal_backend/platform/apperr"
	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"
	"interview_portal_backend/platform/phone"
	"interview_portal_backend/platform/sanitize"
)

const (
	maxNotesLength  = 2000
	msgStaleVersion = "Contact was modified since it was loaded, reload and retry"
)

// Notifier tells the other party that something happened on a contact.
// Implementations must not block on delivery and never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, topic string, contact domain.Contact)
}

// Service negotiates interviews between journalists and experts.
type Service struct {
	repo      repository.TxStore
	notifier  Notifier
	reminders scheduler.ReminderScheduler
	eventBus  events.Bus
	cfg       config.SchedulingConfig
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scheduling service
func New(repo repository.TxStore, notifier Notifier, eventBus events.Bus, cfg config.SchedulingConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		eventBus: eventBus,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetReminderScheduler enables RDV reminders. Without one, accepting an RDV
// schedules nothing.
func (s *Service) SetReminderScheduler(reminders scheduler.ReminderScheduler) {
	s.reminders = reminders
}

// ProposeRdvInput is the journalist's proposal.
type ProposeRdvInput struct {
	Kind      domain.AppointmentKind
	Slots     []string
	Phone     string
	VideoLink string
	Notes     string
	// ExpectedVersion, when set, must equal the stored contact version.
	ExpectedVersion *int
}

// AcceptRdvInput is the expert's answer to a proposal.
type AcceptRdvInput struct {
	SelectedSlot    string
	Notes           string
	ExpectedVersion *int
}

// ProposeRdv opens an RDV negotiation on an accepted contact.
func (s *Service) ProposeRdv(ctx context.Context, contactID int64, in ProposeRdvInput, topic string) (*domain.Contact, error) {
	proposal := domain.ProposeInput{
		Kind:      in.Kind,
		Slots:     in.Slots,
		Phone:     phone.NormalizeE164(in.Phone),
		VideoLink: sanitize.Text(in.VideoLink),
		Notes:     sanitize.TextMax(in.Notes, maxNotesLength),
	}

	before, c, err := s.mutateContact(ctx, "investigations.ProposeRdv", contactID, in.ExpectedVersion, func(c *domain.Contact) error {
		return c.Propose(proposal)
	})
	if err != nil {
		return nil, err
	}

	s.log.RdvTransition(c.ID, string(before.AppointmentStatus), string(c.AppointmentStatus))
	s.notify(ctx, topic, c)
	s.publish(ctx, events.RdvProposed{
		BaseEvent: events.NewBaseEvent(),
		NoticeID:  c.NoticeID,
		ContactID: c.ID,
		ExpertID:  c.ExpertID,
		Kind:      string(c.AppointmentKind),
		Slots:     c.ProposedSlots,
	})
	return c, nil
}

// AcceptRdv records the expert's chosen slot and schedules a reminder.
func (s *Service) AcceptRdv(ctx context.Context, contactID int64, in AcceptRdvInput, topic string) (*domain.Contact, error) {
	accept := domain.AcceptInput{
		SelectedSlot: in.SelectedSlot,
		Notes:        sanitize.TextMax(in.Notes, maxNotesLength),
	}

	before, c, err := s.mutateContact(ctx, "investigations.AcceptRdv", contactID, in.ExpectedVersion, func(c *domain.Contact) error {
		return c.Accept(accept)
	})
	if err != nil {
		return nil, err
	}

	s.log.RdvTransition(c.ID, string(before.AppointmentStatus), string(c.AppointmentStatus))
	s.notify(ctx, topic, c)
	s.scheduleReminder(ctx, c)
	s.publish(ctx, events.RdvAccepted{
		BaseEvent:    events.NewBaseEvent(),
		NoticeID:     c.NoticeID,
		ContactID:    c.ID,
		ExpertID:     c.ExpertID,
		SelectedSlot: c.ScheduledSlot(),
		ScheduledAt:  *c.ScheduledAt,
	})
	return c, nil
}

// ConfirmRdv is the journalist's final confirmation of an accepted RDV.
func (s *Service) ConfirmRdv(ctx context.Context, contactID int64, topic string) (*domain.Contact, error) {
	before, c, err := s.mutateContact(ctx, "investigations.ConfirmRdv", contactID, nil, func(c *domain.Contact) error {
		return c.Confirm()
	})
	if err != nil {
		return nil, err
	}

	s.log.RdvTransition(c.ID, string(before.AppointmentStatus), string(c.AppointmentStatus))
	s.notify(ctx, topic, c)
	s.publish(ctx, events.RdvConfirmed{
		BaseEvent:   events.NewBaseEvent(),
		NoticeID:    c.NoticeID,
		ContactID:   c.ID,
		ExpertID:    c.ExpertID,
		ScheduledAt: *c.ScheduledAt,
	})
	return c, nil
}

// CancelRdv discards any RDV on the contact. The response status is kept, so
// a new proposal can follow immediately.
func (s *Service) CancelRdv(ctx context.Context, contactID int64) (*domain.Contact, error) {
	before, c, err := s.mutateContact(ctx, "investigations.CancelRdv", contactID, nil, func(c *domain.Contact) error {
		return c.Cancel()
	})
	if err != nil {
		return nil, err
	}

	s.log.RdvTransition(c.ID, string(before.AppointmentStatus), string(c.AppointmentStatus))
	s.publish(ctx, events.RdvCancelled{
		BaseEvent:      events.NewBaseEvent(),
		NoticeID:       c.NoticeID,
		ContactID:      c.ID,
		ExpertID:       c.ExpertID,
		PreviousStatus: string(before.AppointmentStatus),
	})
	return c, nil
}

// Respond records the expert's answer to the notice.
func (s *Service) Respond(ctx context.Context, contactID int64, status domain.ResponseStatus, topic string) (*domain.Contact, error) {
	now := s.now()
	_, c, err := s.mutateContact(ctx, "investigations.Respond", contactID, nil, func(c *domain.Contact) error {
		return c.Respond(status, now)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, topic, c)
	s.publish(ctx, events.ExpertResponded{
		BaseEvent: events.NewBaseEvent(),
		NoticeID:  c.NoticeID,
		ContactID: c.ID,
		ExpertID:  c.ExpertID,
		Status:    string(c.ResponseStatus),
	})
	return c, nil
}

// GetContact returns a contact by id.
func (s *Service) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	return s.repo.GetContact(ctx, id)
}

// GetContactForNotice returns the contact only when it belongs to noticeID.
func (s *Service) GetContactForNotice(ctx context.Context, id int64, noticeID int64) (*domain.Contact, error) {
	return s.repo.GetContactForNotice(ctx, id, noticeID)
}

// GetContactsForNotice lists every contact of the notice.
func (s *Service) GetContactsForNotice(ctx context.Context, noticeID int64) ([]domain.Contact, error) {
	return s.repo.ListContacts(ctx, noticeID, repository.ContactFilter{})
}

// GetContactsWithRdv lists contacts of the notice with an RDV in any state.
func (s *Service) GetContactsWithRdv(ctx context.Context, noticeID int64) ([]domain.Contact, error) {
	return s.repo.ListContacts(ctx, noticeID, repository.ContactFilter{WithRdvOnly: true})
}

// mutateContact loads, mutates and saves a contact in one transaction.
// before is a snapshot taken prior to mutate.
func (s *Service) mutateContact(ctx context.Context, op string, contactID int64, expectedVersion *int, mutate func(c *domain.Contact) error) (before, after *domain.Contact, err error) {
	err = s.repo.WithinTx(ctx, func(store repository.Store) error {
		c, err := store.GetContact(ctx, contactID)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != c.Version {
			return apperr.Conflict(msgStaleVersion).WithDetails(map[string]int{
				"expectedVersion": *expectedVersion,
				"currentVersion":  c.Version,
			})
		}

		before = c.Clone()
		if err := mutate(c); err != nil {
			return err
		}
		if err := store.UpdateContact(ctx, c); err != nil {
			return err
		}
		after = c
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, nil, ae.WithOp(op)
		}
		s.log.DatabaseError(op, err)
		return nil, nil, err
	}
	return before, after, nil
}

func (s *Service) notify(ctx context.Context, topic string, c *domain.Contact) {
	if s.notifier == nil || topic == "" {
		return
	}
	s.notifier.Notify(ctx, topic, *c.Clone())
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

// scheduleReminder enqueues a reminder ReminderLead before the RDV. The slot
// is wall-clock time in the configured timezone.
func (s *Service) scheduleReminder(ctx context.Context, c *domain.Contact) {
	if s.reminders == nil || c.ScheduledAt == nil || s.cfg == nil {
		return
	}

	at := wallClockIn(*c.ScheduledAt, s.cfg.GetRdvLocation())
	runAt := at.Add(-s.cfg.GetRdvReminderLead())
	if !runAt.After(s.now()) {
		return
	}

	payload := scheduler.RdvReminderPayload{ContactID: c.ID, ScheduledAt: c.ScheduledSlot()}
	if err := s.reminders.ScheduleRdvReminder(ctx, payload, runAt); err != nil {
		s.log.Warn("failed to schedule rdv reminder", "contactId", c.ID, "error", err)
	}
}

func wallClockIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
