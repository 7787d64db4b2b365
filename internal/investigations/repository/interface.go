package repository

import (
	"context"

	"interview_portal_backend/internal/investigations/domain"
)

// ContactFilter narrows ListContacts.
type ContactFilter struct {
	// WithRdvOnly keeps contacts whose appointment status is not NONE.
	WithRdvOnly    bool
	ResponseStatus domain.ResponseStatus
}

// ContactReader resolves expert contacts by id or by parent notice.
type ContactReader interface {
	// GetContact returns apperr.NotFound when no contact has this id.
	GetContact(ctx context.Context, id int64) (*domain.Contact, error)
	// GetContactForNotice also returns apperr.NotFound when the contact
	// belongs to another notice.
	GetContactForNotice(ctx context.Context, id int64, noticeID int64) (*domain.Contact, error)
	ListContacts(ctx context.Context, noticeID int64, filter ContactFilter) ([]domain.Contact, error)
	// KnownExpertIDs returns the subset of expertIDs that already have a
	// contact row for noticeID.
	KnownExpertIDs(ctx context.Context, noticeID int64, expertIDs []int64) (map[int64]bool, error)
}

// ContactWriter persists expert contacts.
type ContactWriter interface {
	// InsertContacts assigns IDs to the given contacts.
	InsertContacts(ctx context.Context, contacts []*domain.Contact) error
	// UpdateContact saves c if its Version still matches the stored row and
	// bumps c.Version. A stale version yields apperr.Conflict.
	UpdateContact(ctx context.Context, c *domain.Contact) error
}

// NoticeStore persists investigation notices.
type NoticeStore interface {
	CreateNotice(ctx context.Context, n *domain.Notice) error
	GetNotice(ctx context.Context, id int64) (*domain.Notice, error)
}

// Store is everything available inside one unit of work.
type Store interface {
	ContactReader
	ContactWriter
	NoticeStore
}

// TxStore runs fn in a single transaction. Reads of contacts inside fn lock
// the row until commit.
type TxStore interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
}
