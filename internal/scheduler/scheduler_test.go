package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview_portal_backend/internal/events"
	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/notification/outbox"
	"interview_portal_backend/platform/apperr"
	"interview_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type stubContacts struct {
	contacts map[int64]*domain.Contact
	err      error
}

func (s stubContacts) GetContact(_ context.Context, id int64) (*domain.Contact, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.contacts[id]
	if !ok {
		return nil, apperr.NotFound("Contact not found")
	}
	return c, nil
}

type capturingBus struct {
	published []events.Event
	err       error
}

func (b *capturingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return b.err
}

func (b *capturingBus) Subscribe(string, events.Handler) {}

func acceptedContact() *domain.Contact {
	scheduled := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	return &domain.Contact{
		ID:                11,
		NoticeID:          3,
		ExpertID:          7,
		ResponseStatus:    domain.ResponseStatusAccepted,
		AppointmentStatus: domain.AppointmentStatusAccepted,
		AppointmentKind:   domain.AppointmentKindPhone,
		ProposedSlots:     []string{"2025-01-15T14:00"},
		ScheduledAt:       &scheduled,
	}
}

func reminderTask(t *testing.T, contactID int64, slot string) *asynq.Task {
	t.Helper()
	task, err := NewRdvReminderTask(RdvReminderPayload{ContactID: contactID, ScheduledAt: slot})
	if err != nil {
		t.Fatalf("NewRdvReminderTask: %v", err)
	}
	return task
}

func TestRdvReminderPublishesForActiveRdv(t *testing.T) {
	for _, status := range []domain.AppointmentStatus{domain.AppointmentStatusAccepted, domain.AppointmentStatusConfirmed} {
		c := acceptedContact()
		c.AppointmentStatus = status
		bus := &capturingBus{}
		w := newWorker(stubContacts{contacts: map[int64]*domain.Contact{11: c}}, bus, logger.Discard())

		if err := w.handleRdvReminder(context.Background(), reminderTask(t, 11, "2025-01-15T14:00")); err != nil {
			t.Fatalf("%s: handleRdvReminder: %v", status, err)
		}
		if len(bus.published) != 1 {
			t.Fatalf("%s: expected one event, got %d", status, len(bus.published))
		}
		due, ok := bus.published[0].(events.RdvReminderDue)
		if !ok {
			t.Fatalf("%s: unexpected event %T", status, bus.published[0])
		}
		if due.ContactID != 11 || due.NoticeID != 3 || due.ExpertID != 7 || !due.ScheduledAt.Equal(*c.ScheduledAt) {
			t.Fatalf("%s: unexpected reminder %+v", status, due)
		}
	}
}

func TestRdvReminderSkipsStaleRdv(t *testing.T) {
	cancelled := acceptedContact()
	cancelled.AppointmentStatus = domain.AppointmentStatusNone
	cancelled.ScheduledAt = nil

	reproposed := acceptedContact()
	reproposed.AppointmentStatus = domain.AppointmentStatusProposed
	reproposed.ScheduledAt = nil

	cases := map[string]struct {
		contact *domain.Contact
		slot    string
	}{
		"cancelled":   {contact: cancelled, slot: "2025-01-15T14:00"},
		"re-proposed": {contact: reproposed, slot: "2025-01-15T14:00"},
		"rescheduled": {contact: acceptedContact(), slot: "2025-01-15T10:00"},
	}

	for name, tc := range cases {
		bus := &capturingBus{}
		w := newWorker(stubContacts{contacts: map[int64]*domain.Contact{11: tc.contact}}, bus, logger.Discard())

		if err := w.handleRdvReminder(context.Background(), reminderTask(t, 11, tc.slot)); err != nil {
			t.Fatalf("%s: handleRdvReminder: %v", name, err)
		}
		if len(bus.published) != 0 {
			t.Fatalf("%s: stale reminder must not publish, got %d events", name, len(bus.published))
		}
	}
}

func TestRdvReminderMissingContactIsDropped(t *testing.T) {
	bus := &capturingBus{}
	w := newWorker(stubContacts{}, bus, logger.Discard())

	if err := w.handleRdvReminder(context.Background(), reminderTask(t, 99, "2025-01-15T14:00")); err != nil {
		t.Fatalf("expected nil for missing contact, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("expected no events")
	}
}

func TestRdvReminderStoreErrorIsRetried(t *testing.T) {
	w := newWorker(stubContacts{err: errors.New("connection reset")}, &capturingBus{}, logger.Discard())

	err := w.handleRdvReminder(context.Background(), reminderTask(t, 11, "2025-01-15T14:00"))
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestRdvReminderInvalidPayloadSkipsRetry(t *testing.T) {
	w := newWorker(stubContacts{}, &capturingBus{}, logger.Discard())

	err := w.handleRdvReminder(context.Background(), asynq.NewTask(TaskRdvReminder, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestNotificationOutboxDuePublishesEvent(t *testing.T) {
	bus := &capturingBus{}
	w := newWorker(stubContacts{}, bus, logger.Discard())
	id := uuid.New()

	task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{OutboxID: id.String()})
	if err != nil {
		t.Fatalf("NewNotificationOutboxDueTask: %v", err)
	}
	if err := w.handleNotificationOutboxDue(context.Background(), task); err != nil {
		t.Fatalf("handleNotificationOutboxDue: %v", err)
	}
	if len(bus.published) != 1 || bus.published[0].(events.NotificationOutboxDue).OutboxID != id {
		t.Fatalf("unexpected events %+v", bus.published)
	}

	bad, _ := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{OutboxID: "not-a-uuid"})
	if err := w.handleNotificationOutboxDue(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for invalid id, got %v", err)
	}
}

type stubClaimer struct {
	records []outbox.Record
	pending map[uuid.UUID]string
}

func (s *stubClaimer) ClaimPending(context.Context, int) ([]outbox.Record, error) {
	records := s.records
	s.records = nil
	return records, nil
}

func (s *stubClaimer) MarkPending(_ context.Context, id uuid.UUID, lastError *string) error {
	if s.pending == nil {
		s.pending = make(map[uuid.UUID]string)
	}
	s.pending[id] = *lastError
	return nil
}

type stubEnqueuer struct {
	failFor uuid.UUID
	tasks   []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return nil, err
	}
	if payload.OutboxID == s.failFor.String() {
		return nil, errors.New("redis unavailable")
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestDispatchEnqueuesClaimedRecords(t *testing.T) {
	delivered, failing := uuid.New(), uuid.New()
	claimer := &stubClaimer{records: []outbox.Record{
		{ID: delivered, RunAt: time.Now()},
		{ID: failing, RunAt: time.Now()},
	}}
	enqueuer := &stubEnqueuer{failFor: failing}
	d := &NotificationOutboxDispatcher{enqueuer: enqueuer, queue: "default", repo: claimer, log: logger.Discard()}

	if got := d.dispatch(context.Background()); got != 1 {
		t.Fatalf("expected 1 enqueued record, got %d", got)
	}
	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0].Type() != TaskNotificationOutboxDue {
		t.Fatalf("unexpected tasks %+v", enqueuer.tasks)
	}
	if claimer.pending[failing] != "redis unavailable" {
		t.Fatalf("failed record must return to pending, got %v", claimer.pending)
	}
	if _, ok := claimer.pending[delivered]; ok {
		t.Fatal("enqueued record must not return to pending")
	}
}

type stubPruner struct {
	cutoff time.Time
}

func (s *stubPruner) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 4, nil
}

type stubOutboxConfig struct {
	retention time.Duration
	schedule  string
}

func (c stubOutboxConfig) GetOutboxRetention() time.Duration { return c.retention }
func (c stubOutboxConfig) GetOutboxCleanupSchedule() string  { return c.schedule }

func TestOutboxCleanupUsesRetention(t *testing.T) {
	pruner := &stubPruner{}
	c := NewOutboxCleanup(stubOutboxConfig{retention: 48 * time.Hour}, pruner, logger.Discard())
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if deleted := c.cleanup(context.Background()); deleted != 4 {
		t.Fatalf("expected 4 deleted, got %d", deleted)
	}
	if !pruner.cutoff.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", pruner.cutoff)
	}
	if c.schedule != defaultOutboxCleanupSchedule {
		t.Fatalf("expected default schedule, got %q", c.schedule)
	}
}

func TestOutboxCleanupRejectsInvalidSchedule(t *testing.T) {
	c := NewOutboxCleanup(stubOutboxConfig{schedule: "every now and then"}, &stubPruner{}, logger.Discard())

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestPingRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	if err := PingRedis(context.Background(), url, false); err != nil {
		t.Fatalf("PingRedis: %v", err)
	}

	mr.Close()
	if err := PingRedis(context.Background(), url, false); err == nil {
		t.Fatal("expected ping to fail once redis is gone")
	}
}

type stubSchedulerConfig struct {
	url   string
	queue string
}

func (c stubSchedulerConfig) GetRedisURL() string       { return c.url }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 0 }

func TestClientOptFromConfig(t *testing.T) {
	if _, _, err := clientOptFromConfig(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}

	opt, queue, err := clientOptFromConfig(stubSchedulerConfig{url: "redis://:secret@cache:6380/2"})
	if err != nil {
		t.Fatalf("clientOptFromConfig: %v", err)
	}
	if opt.Addr != "cache:6380" || opt.Password != "secret" || opt.DB != 2 || queue != "default" {
		t.Fatalf("unexpected options %+v queue %q", opt, queue)
	}
}

func TestReminderTaskIDIsStablePerSlot(t *testing.T) {
	a := reminderTaskID(RdvReminderPayload{ContactID: 11, ScheduledAt: "2025-01-15T14:00"})
	b := reminderTaskID(RdvReminderPayload{ContactID: 11, ScheduledAt: "2025-01-15T14:00"})
	c := reminderTaskID(RdvReminderPayload{ContactID: 11, ScheduledAt: "2025-01-15T10:00"})

	if a != b {
		t.Fatalf("same contact and slot must share a task id: %q vs %q", a, b)
	}
	if a == c {
		t.Fatal("different slots must not share a task id")
	}
}
