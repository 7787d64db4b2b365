package domain

import "time"

// Notice is an editorial request for expert commentary, owned by the
// journalist who opened it.
type Notice struct {
	ID                 int64
	JournalistID       int64
	MediaID            int64
	CommanditaireID    int64
	Title              string
	InvestigationStart time.Time
	InvestigationEnd   time.Time
	CopyDeadline       time.Time
	PlannedPublication time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DatesOrdered reports whether start <= end <= deadline <= publication,
// skipping unset dates. Nothing enforces this ordering; callers only log it.
func (n Notice) DatesOrdered() bool {
	dates := []time.Time{n.InvestigationStart, n.InvestigationEnd, n.CopyDeadline, n.PlannedPublication}
	var prev time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if !prev.IsZero() && d.Before(prev) {
			return false
		}
		prev = d
	}
	return true
}
