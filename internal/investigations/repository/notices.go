package repository

import (
	"context"
	"errors"
	"time"

	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
)

const insertNoticeQuery = `INSERT INTO investigation_notices (
		journalist_id, media_id, commanditaire_id, title,
		investigation_start, investigation_end, copy_deadline, planned_publication
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at`

const getNoticeQuery = `SELECT id, journalist_id, media_id, commanditaire_id, title,
		investigation_start, investigation_end, copy_deadline, planned_publication,
		created_at, updated_at
	FROM investigation_notices WHERE id = $1`

// CreateNotice inserts n and fills in its ID and timestamps.
func (r *Repository) CreateNotice(ctx context.Context, n *domain.Notice) error {
	err := r.q.QueryRow(ctx, insertNoticeQuery,
		n.JournalistID, n.MediaID, n.CommanditaireID, n.Title,
		nullableTime(n.InvestigationStart), nullableTime(n.InvestigationEnd),
		nullableTime(n.CopyDeadline), nullableTime(n.PlannedPublication),
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return wrapQueryErr("insert notice", err)
	}
	return nil
}

// GetNotice retrieves a notice by its ID
func (r *Repository) GetNotice(ctx context.Context, id int64) (*domain.Notice, error) {
	var (
		n                        domain.Notice
		start, end, deadline, pb *time.Time
	)
	err := r.q.QueryRow(ctx, getNoticeQuery, id).Scan(
		&n.ID, &n.JournalistID, &n.MediaID, &n.CommanditaireID, &n.Title,
		&start, &end, &deadline, &pb,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(noticeNotFoundMsg)
		}
		return nil, wrapQueryErr("get notice", err)
	}

	n.InvestigationStart = derefTime(start)
	n.InvestigationEnd = derefTime(end)
	n.CopyDeadline = derefTime(deadline)
	n.PlannedPublication = derefTime(pb)
	return &n, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
