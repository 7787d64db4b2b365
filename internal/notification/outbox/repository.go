// Package outbox persists pending notifications so delivery survives restarts
// and happens outside the request that produced them.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"

	errRepoNotConfigured = "outbox repository not configured"
)

// Record is one notification awaiting or past delivery.
type Record struct {
	ID        uuid.UUID
	NoticeID  int64
	ContactID int64
	Topic     string
	Payload   json.RawMessage
	RunAt     time.Time
	Status    Status
	Attempts  int
	LastError *string
}

type InsertParams struct {
	NoticeID  int64
	ContactID int64
	Topic     string
	Payload   any
	RunAt     time.Time
}

const recordColumns = `id, notice_id, contact_id, topic, payload, run_at, status, attempts, last_error`

const insertQuery = `INSERT INTO notification_outbox (id, notice_id, contact_id, topic, payload, run_at, status)
	VALUES ($1, $2, $3, $4, $5, $6, 'pending')`

const getByIDQuery = `SELECT ` + recordColumns + ` FROM notification_outbox WHERE id = $1`

const claimPendingQuery = `WITH cte AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.notice_id, o.contact_id, o.topic, o.payload, o.run_at, o.status, o.attempts, o.last_error`

const deleteFinishedBeforeQuery = `DELETE FROM notification_outbox
	WHERE status IN ('succeeded', 'failed') AND updated_at < $1`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ready() error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	return nil
}

// Insert stores a pending record and returns its id.
func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if err := r.ready(); err != nil {
		return uuid.Nil, err
	}
	if p.Topic == "" {
		return uuid.Nil, fmt.Errorf("topic is required")
	}
	if p.ContactID <= 0 {
		return uuid.Nil, fmt.Errorf("contactId is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.New()
	if _, err := r.pool.Exec(ctx, insertQuery, id, p.NoticeID, p.ContactID, p.Topic, payloadBytes, p.RunAt); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var status string
	err := row.Scan(&rec.ID, &rec.NoticeID, &rec.ContactID, &rec.Topic, &rec.Payload, &rec.RunAt, &status, &rec.Attempts, &rec.LastError)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := r.ready(); err != nil {
		return Record{}, err
	}
	return scanRecord(r.pool.QueryRow(ctx, getByIDQuery, id))
}

// ClaimPending moves up to limit due records to enqueued and returns them.
// Concurrent dispatchers never claim the same row.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 50
	}

	var results []Record
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, claimPendingQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	if err := r.ready(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	return r.exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'pending', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
}

func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'failed', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
}

// ScheduleRetry puts the record back to pending with a later run_at.
func (r *Repository) ScheduleRetry(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error {
	return r.exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'pending', run_at = $2, last_error = $3, updated_at = now()
		 WHERE id = $1`,
		id, runAt, lastError,
	)
}

// DeleteFinishedBefore removes succeeded and failed records last touched
// before cutoff and returns how many were deleted.
func (r *Repository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, deleteFinishedBeforeQuery, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
