package service

import (
	"context"
	"time"

	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/platform/apperr"
	"interview_portal_backend/platform/sanitize"
)

const maxTitleLength = 300

// CreateNoticeInput opens a new investigation.
type CreateNoticeInput struct {
	JournalistID       int64
	MediaID            int64
	CommanditaireID    int64
	Title              string
	InvestigationStart time.Time
	InvestigationEnd   time.Time
	CopyDeadline       time.Time
	PlannedPublication time.Time
}

// CreateNotice stores a notice. Unordered dates are accepted and logged.
func (s *Service) CreateNotice(ctx context.Context, in CreateNoticeInput) (*domain.Notice, error) {
	title := sanitize.TextMax(in.Title, maxTitleLength)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}

	n := &domain.Notice{
		JournalistID:       in.JournalistID,
		MediaID:            in.MediaID,
		CommanditaireID:    in.CommanditaireID,
		Title:              title,
		InvestigationStart: in.InvestigationStart,
		InvestigationEnd:   in.InvestigationEnd,
		CopyDeadline:       in.CopyDeadline,
		PlannedPublication: in.PlannedPublication,
	}
	if !n.DatesOrdered() {
		s.log.Warn("notice dates are not in chronological order", "journalistId", n.JournalistID, "title", n.Title)
	}

	if err := s.repo.CreateNotice(ctx, n); err != nil {
		s.log.DatabaseError("create notice", err)
		return nil, err
	}
	return n, nil
}

// GetNotice returns a notice by id.
func (s *Service) GetNotice(ctx context.Context, id int64) (*domain.Notice, error) {
	return s.repo.GetNotice(ctx, id)
}
