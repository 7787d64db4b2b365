package domain

import (
	"slices"
	"time"

	"interview_portal_backend/platform/apperr"
)

// Validation messages returned by the RDV transitions. Callers match on them.
const (
	MsgExpertNotAccepted      = "Cannot propose RDV: expert has not accepted the request"
	MsgRdvAlreadyExists       = "RDV already exists for this contact"
	MsgSlotRequired           = "At least one time slot is required"
	MsgTooManySlots           = "Maximum 5 time slots allowed"
	MsgInvalidSlotFormat      = "Invalid slot format"
	MsgNoRdvProposed          = "Cannot accept: no RDV has been proposed"
	MsgSlotNotProposed        = "Selected slot must be one of the proposed slots"
	MsgRdvNotAccepted         = "Cannot confirm: RDV has not been accepted"
	MsgNoRdvToCancel          = "No RDV to cancel"
	MsgInvalidResponse        = "Invalid response status"
	MsgAlreadyResponded       = "Expert has already responded to this request"
	MsgInvalidAppointmentKind = "Invalid appointment kind"
)

// Contact is the response record of one expert for one notice. It carries the
// response state machine and the nested RDV state machine.
type Contact struct {
	ID           int64
	NoticeID     int64
	JournalistID int64
	ExpertID     int64

	ResponseStatus ResponseStatus
	ResponseAt     *time.Time

	AppointmentStatus AppointmentStatus
	AppointmentKind   AppointmentKind
	ProposedSlots     []string
	ScheduledAt       *time.Time
	Phone             string
	VideoLink         string
	JournalistNotes   string
	ExpertNotes       string

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProposeInput is what the journalist sends to open an RDV negotiation.
type ProposeInput struct {
	Kind      AppointmentKind
	Slots     []string
	Phone     string
	VideoLink string
	Notes     string
}

// AcceptInput is the expert's pick among the proposed slots.
type AcceptInput struct {
	SelectedSlot string
	Notes        string
}

// NewContact returns a PENDING contact with no RDV for expertID on notice.
func NewContact(notice Notice, expertID int64, now time.Time) *Contact {
	return &Contact{
		NoticeID:          notice.ID,
		JournalistID:      notice.JournalistID,
		ExpertID:          expertID,
		ResponseStatus:    ResponseStatusPending,
		AppointmentStatus: AppointmentStatusNone,
		ProposedSlots:     []string{},
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Respond records the expert's answer. Only a PENDING contact can answer and
// the answer is final. Appointment fields are not touched.
func (c *Contact) Respond(status ResponseStatus, at time.Time) error {
	if !status.IsTerminal() {
		return apperr.Validation(MsgInvalidResponse)
	}
	if c.ResponseStatus != ResponseStatusPending {
		return apperr.Validation(MsgAlreadyResponded)
	}
	c.ResponseStatus = status
	c.ResponseAt = &at
	return nil
}

// CanProposeAppointment is true when the expert accepted and no RDV is open.
func (c *Contact) CanProposeAppointment() bool {
	return c.ResponseStatus.IsAccepted() && c.AppointmentStatus == AppointmentStatusNone
}

// HasRdv reports whether an RDV negotiation is in progress or settled.
func (c *Contact) HasRdv() bool {
	return c.AppointmentStatus != AppointmentStatusNone
}

// Propose moves NONE -> PROPOSED.
func (c *Contact) Propose(in ProposeInput) error {
	if !c.ResponseStatus.IsAccepted() {
		return apperr.Validation(MsgExpertNotAccepted)
	}
	if c.AppointmentStatus != AppointmentStatusNone {
		return apperr.Validation(MsgRdvAlreadyExists)
	}
	if len(in.Slots) == 0 {
		return apperr.Validation(MsgSlotRequired)
	}
	if len(in.Slots) > MaxSlots {
		return apperr.Validation(MsgTooManySlots)
	}

	slots := make([]string, 0, len(in.Slots))
	for _, raw := range in.Slots {
		if _, ok := ParseSlot(raw); !ok {
			return apperr.Validationf("%s: %q", MsgInvalidSlotFormat, raw)
		}
		slots = append(slots, raw)
	}
	if !in.Kind.IsValid() {
		return apperr.Validation(MsgInvalidAppointmentKind)
	}

	c.AppointmentStatus = AppointmentStatusProposed
	c.AppointmentKind = in.Kind
	c.ProposedSlots = slots
	c.ScheduledAt = nil
	c.Phone = ""
	c.VideoLink = ""
	switch in.Kind {
	case AppointmentKindPhone:
		c.Phone = in.Phone
	case AppointmentKindVideo:
		c.VideoLink = in.VideoLink
	}
	c.JournalistNotes = in.Notes
	return nil
}

// Accept moves PROPOSED -> ACCEPTED. The selected slot must appear verbatim in
// ProposedSlots; two strings for the same instant do not match.
func (c *Contact) Accept(in AcceptInput) error {
	if c.AppointmentStatus != AppointmentStatusProposed {
		return apperr.Validation(MsgNoRdvProposed)
	}

	selected := in.SelectedSlot
	at, ok := ParseSlot(selected)
	if !ok {
		return apperr.Validationf("%s: %q", MsgInvalidSlotFormat, in.SelectedSlot)
	}
	if !slices.Contains(c.ProposedSlots, selected) {
		return apperr.Validation(MsgSlotNotProposed)
	}

	c.ScheduledAt = &at
	c.ExpertNotes = in.Notes
	c.AppointmentStatus = AppointmentStatusAccepted
	return nil
}

// Confirm moves ACCEPTED -> CONFIRMED.
func (c *Contact) Confirm() error {
	if c.AppointmentStatus != AppointmentStatusAccepted {
		return apperr.Validation(MsgRdvNotAccepted)
	}
	c.AppointmentStatus = AppointmentStatusConfirmed
	return nil
}

// Cancel resets any open RDV to the empty NONE state so a new proposal can
// start from scratch.
func (c *Contact) Cancel() error {
	if c.AppointmentStatus == AppointmentStatusNone {
		return apperr.Validation(MsgNoRdvToCancel)
	}
	c.AppointmentStatus = AppointmentStatusNone
	c.AppointmentKind = ""
	c.ProposedSlots = []string{}
	c.ScheduledAt = nil
	c.Phone = ""
	c.VideoLink = ""
	c.JournalistNotes = ""
	c.ExpertNotes = ""
	return nil
}

// ScheduledSlot renders ScheduledAt as a slot string, or "" when unset.
func (c *Contact) ScheduledSlot() string {
	if c.ScheduledAt == nil {
		return ""
	}
	return FormatSlot(*c.ScheduledAt)
}

// Clone returns a deep copy, so callers can keep a snapshot across a mutation.
func (c *Contact) Clone() *Contact {
	out := *c
	out.ProposedSlots = slices.Clone(c.ProposedSlots)
	if c.ResponseAt != nil {
		t := *c.ResponseAt
		out.ResponseAt = &t
	}
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		out.ScheduledAt = &t
	}
	return &out
}
