// Package events defines the investigation events exchanged between modules.
// The bus itself lives in platform/events.
package events

import (
	"time"

	"interview_portal_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Targeting
// =============================================================================

// ExpertsTargeted is published after new contacts were created for a notice.
type ExpertsTargeted struct {
	BaseEvent
	NoticeID     int64   `json:"noticeId"`
	JournalistID int64   `json:"journalistId"`
	ContactIDs   []int64 `json:"contactIds"`
	ExpertIDs    []int64 `json:"expertIds"`
}

func (e ExpertsTargeted) EventName() string { return "investigations.experts.targeted" }

// ExpertResponded is published when an expert (or their press office) answers.
type ExpertResponded struct {
	BaseEvent
	NoticeID  int64  `json:"noticeId"`
	ContactID int64  `json:"contactId"`
	ExpertID  int64  `json:"expertId"`
	Status    string `json:"status"`
}

func (e ExpertResponded) EventName() string { return "investigations.expert.responded" }

// =============================================================================
// RDV lifecycle
// =============================================================================

type RdvProposed struct {
	BaseEvent
	NoticeID  int64    `json:"noticeId"`
	ContactID int64    `json:"contactId"`
	ExpertID  int64    `json:"expertId"`
	Kind      string   `json:"kind,omitempty"`
	Slots     []string `json:"slots"`
}

func (e RdvProposed) EventName() string { return "investigations.rdv.proposed" }

type RdvAccepted struct {
	BaseEvent
	NoticeID     int64     `json:"noticeId"`
	ContactID    int64     `json:"contactId"`
	ExpertID     int64     `json:"expertId"`
	SelectedSlot string    `json:"selectedSlot"`
	ScheduledAt  time.Time `json:"scheduledAt"`
}

func (e RdvAccepted) EventName() string { return "investigations.rdv.accepted" }

type RdvConfirmed struct {
	BaseEvent
	NoticeID    int64     `json:"noticeId"`
	ContactID   int64     `json:"contactId"`
	ExpertID    int64     `json:"expertId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func (e RdvConfirmed) EventName() string { return "investigations.rdv.confirmed" }

// RdvCancelled carries the appointment status the contact had before the reset.
type RdvCancelled struct {
	BaseEvent
	NoticeID       int64  `json:"noticeId"`
	ContactID      int64  `json:"contactId"`
	ExpertID       int64  `json:"expertId"`
	PreviousStatus string `json:"previousStatus"`
}

func (e RdvCancelled) EventName() string { return "investigations.rdv.cancelled" }

// RdvReminderDue is published by the scheduler worker shortly before an
// accepted or confirmed RDV.
type RdvReminderDue struct {
	BaseEvent
	NoticeID    int64     `json:"noticeId"`
	ContactID   int64     `json:"contactId"`
	ExpertID    int64     `json:"expertId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func (e RdvReminderDue) EventName() string { return "investigations.rdv.reminder_due" }

// =============================================================================
// Notification
// =============================================================================

// NotificationRequested is published after an outbox record was written.
type NotificationRequested struct {
	BaseEvent
	OutboxID  uuid.UUID `json:"outboxId"`
	Topic     string    `json:"topic"`
	ContactID int64     `json:"contactId"`
}

func (e NotificationRequested) EventName() string { return "notification.requested" }

// NotificationOutboxDue asks the notification module to deliver one record.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
