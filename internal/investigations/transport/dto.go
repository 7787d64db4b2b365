package transport

import (
	"strings"
	"time"

	"interview_portal_backend/internal/investigations/domain"
)

// Default notification topics used when a request does not name one.
const (
	TopicExpertTargeted  = "investigations.expert_targeted"
	TopicExpertResponded = "investigations.expert_responded"
	TopicRdvProposed     = "investigations.rdv_proposed"
	TopicRdvAccepted     = "investigations.rdv_accepted"
	TopicRdvConfirmed    = "investigations.rdv_confirmed"
)

// CreateNoticeRequest is the request body for opening an investigation
type CreateNoticeRequest struct {
	JournalistID       int64      `json:"journalistId" validate:"required,gt=0"`
	MediaID            int64      `json:"mediaId" validate:"gte=0"`
	CommanditaireID    int64      `json:"commanditaireId" validate:"gte=0"`
	Title              string     `json:"title" validate:"required,min=1,max=300"`
	InvestigationStart *time.Time `json:"investigationStart,omitempty"`
	InvestigationEnd   *time.Time `json:"investigationEnd,omitempty"`
	CopyDeadline       *time.Time `json:"copyDeadline,omitempty"`
	PlannedPublication *time.Time `json:"plannedPublication,omitempty"`
}

// TargetExpertsRequest lists candidate experts for a notice.
type TargetExpertsRequest struct {
	ExpertIDs []int64 `json:"expertIds" validate:"required,min=1,max=500,dive,gt=0"`
	Topic     *string `json:"topic,omitempty" validate:"omitempty,topic"`
}

// RespondRequest carries the expert's answer. The status itself is checked by
// the domain so unknown values get the domain message.
type RespondRequest struct {
	Status string  `json:"status" validate:"required,max=40"`
	Topic  *string `json:"topic,omitempty" validate:"omitempty,topic"`
}

// ProposeRdvRequest is the journalist's RDV proposal
type ProposeRdvRequest struct {
	Kind            string   `json:"kind" validate:"required,oneof=PHONE VIDEO"`
	Slots           []string `json:"slots" validate:"required,max=20,dive,max=40"`
	Phone           string   `json:"phone,omitempty" validate:"max=40"`
	VideoLink       string   `json:"videoLink,omitempty" validate:"omitempty,url,max=500"`
	Notes           string   `json:"notes,omitempty" validate:"max=2000"`
	ExpectedVersion *int     `json:"expectedVersion,omitempty" validate:"omitempty,gt=0"`
	Topic           *string  `json:"topic,omitempty" validate:"omitempty,topic"`
}

// AcceptRdvRequest is the expert's slot choice
type AcceptRdvRequest struct {
	SelectedSlot    string  `json:"selectedSlot" validate:"required,max=40"`
	Notes           string  `json:"notes,omitempty" validate:"max=2000"`
	ExpectedVersion *int    `json:"expectedVersion,omitempty" validate:"omitempty,gt=0"`
	Topic           *string `json:"topic,omitempty" validate:"omitempty,topic"`
}

// ConfirmRdvRequest is optional; an empty body confirms with the default topic.
type ConfirmRdvRequest struct {
	Topic *string `json:"topic,omitempty" validate:"omitempty,topic"`
}

// ListContactsQuery holds query parameters for GET /notices/:id/contacts
type ListContactsQuery struct {
	WithRdv bool `form:"withRdv"`
}

// ResolveTopic returns the requested topic, or fallback when none was sent.
// An explicit empty string disables the notification.
func ResolveTopic(requested *string, fallback string) string {
	if requested == nil {
		return fallback
	}
	return strings.TrimSpace(*requested)
}

// NoticeResponse is the API view of a notice
type NoticeResponse struct {
	ID                 int64      `json:"id"`
	JournalistID       int64      `json:"journalistId"`
	MediaID            int64      `json:"mediaId"`
	CommanditaireID    int64      `json:"commanditaireId"`
	Title              string     `json:"title"`
	InvestigationStart *time.Time `json:"investigationStart,omitempty"`
	InvestigationEnd   *time.Time `json:"investigationEnd,omitempty"`
	CopyDeadline       *time.Time `json:"copyDeadline,omitempty"`
	PlannedPublication *time.Time `json:"plannedPublication,omitempty"`
	DatesOrdered       bool       `json:"datesOrdered"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ContactResponse is the API view of an expert contact
type ContactResponse struct {
	ID                int64      `json:"id"`
	NoticeID          int64      `json:"noticeId"`
	JournalistID      int64      `json:"journalistId"`
	ExpertID          int64      `json:"expertId"`
	ResponseStatus    string     `json:"responseStatus"`
	ResponseAt        *time.Time `json:"responseAt,omitempty"`
	AppointmentStatus string     `json:"appointmentStatus"`
	AppointmentKind   string     `json:"appointmentKind,omitempty"`
	ProposedSlots     []string   `json:"proposedSlots"`
	ScheduledAt       string     `json:"scheduledAt,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	VideoLink         string     `json:"videoLink,omitempty"`
	JournalistNotes   string     `json:"journalistNotes,omitempty"`
	ExpertNotes       string     `json:"expertNotes,omitempty"`
	Version           int        `json:"version"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ContactListResponse wraps a contact list
type ContactListResponse struct {
	Items []ContactResponse `json:"items"`
	Total int               `json:"total"`
}

// ContactCSVRow is one line of the notice roster export.
type ContactCSVRow struct {
	ContactID         int64  `csv:"contact_id"`
	ExpertID          int64  `csv:"expert_id"`
	ResponseStatus    string `csv:"response_status"`
	RespondedAt       string `csv:"responded_at"`
	AppointmentStatus string `csv:"appointment_status"`
	AppointmentKind   string `csv:"appointment_kind"`
	ProposedSlots     string `csv:"proposed_slots"`
	ScheduledAt       string `csv:"scheduled_at"`
	Phone             string `csv:"phone"`
	VideoLink         string `csv:"video_link"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// TimeOrZero dereferences an optional request date.
func TimeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// ToNoticeResponse maps a domain notice to its API view.
func ToNoticeResponse(n domain.Notice) NoticeResponse {
	return NoticeResponse{
		ID:                 n.ID,
		JournalistID:       n.JournalistID,
		MediaID:            n.MediaID,
		CommanditaireID:    n.CommanditaireID,
		Title:              n.Title,
		InvestigationStart: optionalTime(n.InvestigationStart),
		InvestigationEnd:   optionalTime(n.InvestigationEnd),
		CopyDeadline:       optionalTime(n.CopyDeadline),
		PlannedPublication: optionalTime(n.PlannedPublication),
		DatesOrdered:       n.DatesOrdered(),
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
}

// ToContactResponse maps a domain contact to its API view.
func ToContactResponse(c domain.Contact) ContactResponse {
	slots := c.ProposedSlots
	if slots == nil {
		slots = []string{}
	}
	return ContactResponse{
		ID:                c.ID,
		NoticeID:          c.NoticeID,
		JournalistID:      c.JournalistID,
		ExpertID:          c.ExpertID,
		ResponseStatus:    string(c.ResponseStatus),
		ResponseAt:        c.ResponseAt,
		AppointmentStatus: string(c.AppointmentStatus),
		AppointmentKind:   string(c.AppointmentKind),
		ProposedSlots:     slots,
		ScheduledAt:       c.ScheduledSlot(),
		Phone:             c.Phone,
		VideoLink:         c.VideoLink,
		JournalistNotes:   c.JournalistNotes,
		ExpertNotes:       c.ExpertNotes,
		Version:           c.Version,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToContactList maps contacts to a list response.
func ToContactList(contacts []domain.Contact) ContactListResponse {
	items := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, ToContactResponse(c))
	}
	return ContactListResponse{Items: items, Total: len(items)}
}

// ToCSVRows flattens contacts for the roster export.
func ToCSVRows(contacts []domain.Contact) []ContactCSVRow {
	rows := make([]ContactCSVRow, 0, len(contacts))
	for _, c := range contacts {
		row := ContactCSVRow{
			ContactID:         c.ID,
			ExpertID:          c.ExpertID,
			ResponseStatus:    string(c.ResponseStatus),
			AppointmentStatus: string(c.AppointmentStatus),
			AppointmentKind:   string(c.AppointmentKind),
			ProposedSlots:     strings.Join(c.ProposedSlots, "|"),
			ScheduledAt:       c.ScheduledSlot(),
			Phone:             c.Phone,
			VideoLink:         c.VideoLink,
		}
		if c.ResponseAt != nil {
			row.RespondedAt = c.ResponseAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows
}
