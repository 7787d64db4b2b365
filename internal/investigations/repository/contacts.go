package repository

import (
	"context"
	"errors"
	"time"

	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/platform/apperr"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var contactColumns = []string{
	"id", "notice_id", "journalist_id", "expert_id",
	"response_status", "response_at",
	"appointment_status", "appointment_kind", "proposed_slots", "scheduled_at",
	"phone", "video_link", "journalist_notes", "expert_notes",
	"version", "created_at", "updated_at",
}

const selectContactColumns = `SELECT id, notice_id, journalist_id, expert_id,
		response_status, response_at,
		appointment_status, appointment_kind, proposed_slots, scheduled_at,
		phone, video_link, journalist_notes, expert_notes,
		version, created_at, updated_at
	FROM expert_contacts`

const getContactQuery = selectContactColumns + ` WHERE id = $1`

const getContactForNoticeQuery = selectContactColumns + ` WHERE id = $1 AND notice_id = $2`

const knownExpertIDsQuery = `SELECT expert_id FROM expert_contacts
	WHERE notice_id = $1 AND expert_id = ANY($2)`

const insertContactQuery = `INSERT INTO expert_contacts (
		notice_id, journalist_id, expert_id, response_status, response_at,
		appointment_status, appointment_kind, proposed_slots, scheduled_at,
		phone, video_link, journalist_notes, expert_notes, version, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id`

const updateContactQuery = `UPDATE expert_contacts SET
		response_status = $3,
		response_at = $4,
		appointment_status = $5,
		appointment_kind = $6,
		proposed_slots = $7,
		scheduled_at = $8,
		phone = $9,
		video_link = $10,
		journalist_notes = $11,
		expert_notes = $12,
		updated_at = $13,
		version = version + 1
	WHERE id = $1 AND version = $2
	RETURNING version`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c                 domain.Contact
		responseStatus    string
		appointmentStatus string
		appointmentKind   string
	)
	err := row.Scan(
		&c.ID, &c.NoticeID, &c.JournalistID, &c.ExpertID,
		&responseStatus, &c.ResponseAt,
		&appointmentStatus, &appointmentKind, &c.ProposedSlots, &c.ScheduledAt,
		&c.Phone, &c.VideoLink, &c.JournalistNotes, &c.ExpertNotes,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ResponseStatus = domain.ResponseStatus(responseStatus)
	c.AppointmentStatus = domain.AppointmentStatus(appointmentStatus)
	c.AppointmentKind = domain.AppointmentKind(appointmentKind)
	if c.ProposedSlots == nil {
		c.ProposedSlots = []string{}
	}
	return &c, nil
}

// GetContact retrieves an expert contact by its ID
func (r *Repository) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	c, err := scanContact(r.q.QueryRow(ctx, getContactQuery+r.lockClause(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contactNotFoundMsg)
		}
		return nil, wrapQueryErr("get contact", err)
	}
	return c, nil
}

// GetContactForNotice retrieves an expert contact only if it belongs to noticeID.
func (r *Repository) GetContactForNotice(ctx context.Context, id int64, noticeID int64) (*domain.Contact, error) {
	c, err := scanContact(r.q.QueryRow(ctx, getContactForNoticeQuery+r.lockClause(), id, noticeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contactNotFoundMsg)
		}
		return nil, wrapQueryErr("get contact for notice", err)
	}
	return c, nil
}

// buildListContactsQuery renders the list query for a notice and filter.
func buildListContactsQuery(noticeID int64, filter ContactFilter) (string, []any, error) {
	b := psql.Select(contactColumns...).
		From("expert_contacts").
		Where(sq.Eq{"notice_id": noticeID})

	if filter.WithRdvOnly {
		b = b.Where(sq.NotEq{"appointment_status": string(domain.AppointmentStatusNone)})
	}
	if filter.ResponseStatus != "" {
		b = b.Where(sq.Eq{"response_status": string(filter.ResponseStatus)})
	}

	return b.OrderBy("id ASC").ToSql()
}

// ListContacts returns the contacts of a notice, oldest first.
func (r *Repository) ListContacts(ctx context.Context, noticeID int64, filter ContactFilter) ([]domain.Contact, error) {
	query, args, err := buildListContactsQuery(noticeID, filter)
	if err != nil {
		return nil, wrapQueryErr("build list contacts", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryErr("list contacts", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, wrapQueryErr("scan contact", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("iterate contacts", err)
	}

	return contacts, nil
}

// KnownExpertIDs returns which of expertIDs already have a contact for noticeID.
func (r *Repository) KnownExpertIDs(ctx context.Context, noticeID int64, expertIDs []int64) (map[int64]bool, error) {
	known := make(map[int64]bool)
	if len(expertIDs) == 0 {
		return known, nil
	}

	rows, err := r.q.Query(ctx, knownExpertIDsQuery, noticeID, expertIDs)
	if err != nil {
		return nil, wrapQueryErr("query known experts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQueryErr("scan expert id", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("iterate known experts", err)
	}

	return known, nil
}

// InsertContacts inserts the contacts and writes back their generated IDs.
func (r *Repository) InsertContacts(ctx context.Context, contacts []*domain.Contact) error {
	for _, c := range contacts {
		slots := c.ProposedSlots
		if slots == nil {
			slots = []string{}
		}
		err := r.q.QueryRow(ctx, insertContactQuery,
			c.NoticeID, c.JournalistID, c.ExpertID, string(c.ResponseStatus), c.ResponseAt,
			string(c.AppointmentStatus), string(c.AppointmentKind), slots, c.ScheduledAt,
			c.Phone, c.VideoLink, c.JournalistNotes, c.ExpertNotes, c.Version, c.CreatedAt, c.UpdatedAt,
		).Scan(&c.ID)
		if err != nil {
			return wrapQueryErr("insert contact", err)
		}
	}
	return nil
}

// UpdateContact saves the mutable fields of c under optimistic locking.
func (r *Repository) UpdateContact(ctx context.Context, c *domain.Contact) error {
	now := time.Now().UTC()
	slots := c.ProposedSlots
	if slots == nil {
		slots = []string{}
	}

	var version int
	err := r.q.QueryRow(ctx, updateContactQuery,
		c.ID, c.Version,
		string(c.ResponseStatus), c.ResponseAt,
		string(c.AppointmentStatus), string(c.AppointmentKind), slots, c.ScheduledAt,
		c.Phone, c.VideoLink, c.JournalistNotes, c.ExpertNotes, now,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Conflict("Contact was modified concurrently, reload and retry")
		}
		return wrapQueryErr("update contact", err)
	}

	c.Version = version
	c.UpdatedAt = now
	return nil
}
