// Package domain holds the expert-interview negotiation rules: the investigation
// notice, the per-expert contact with its response and RDV state machines, and
// the slot value type. Nothing here performs I/O.
package domain

// ResponseStatus is the expert's answer to a notice.
type ResponseStatus string

const (
	ResponseStatusPending                   ResponseStatus = "PENDING"
	ResponseStatusAccepted                  ResponseStatus = "ACCEPTED"
	ResponseStatusDeclined                  ResponseStatus = "DECLINED"
	ResponseStatusDeclinedWithSuggestion    ResponseStatus = "DECLINED_WITH_SUGGESTION"
	ResponseStatusAcceptedViaPressRelations ResponseStatus = "ACCEPTED_VIA_PRESS_RELATIONS"
)

// IsAccepted reports whether the expert agreed to be interviewed, directly or
// through their press relations.
func (s ResponseStatus) IsAccepted() bool {
	return s == ResponseStatusAccepted || s == ResponseStatusAcceptedViaPressRelations
}

// IsValid reports whether s is a known response status.
func (s ResponseStatus) IsValid() bool {
	switch s {
	case ResponseStatusPending, ResponseStatusAccepted, ResponseStatusDeclined,
		ResponseStatusDeclinedWithSuggestion, ResponseStatusAcceptedViaPressRelations:
		return true
	}
	return false
}

// IsTerminal is true for every answered status.
func (s ResponseStatus) IsTerminal() bool {
	return s.IsValid() && s != ResponseStatusPending
}

// AppointmentStatus is the RDV sub-state of a contact.
type AppointmentStatus string

const (
	AppointmentStatusNone      AppointmentStatus = "NONE"
	AppointmentStatusProposed  AppointmentStatus = "PROPOSED"
	AppointmentStatusAccepted  AppointmentStatus = "ACCEPTED"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
)

// IsValid reports whether s is a known appointment status.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusNone, AppointmentStatusProposed, AppointmentStatusAccepted, AppointmentStatusConfirmed:
		return true
	}
	return false
}

// AppointmentKind is the medium of the RDV.
type AppointmentKind string

const (
	AppointmentKindPhone AppointmentKind = "PHONE"
	AppointmentKindVideo AppointmentKind = "VIDEO"
)

// IsValid reports whether k is PHONE or VIDEO.
func (k AppointmentKind) IsValid() bool {
	return k == AppointmentKindPhone || k == AppointmentKindVideo
}
