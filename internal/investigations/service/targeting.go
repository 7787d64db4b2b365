package service

import (
	"context"
	"time"

	"interview_portal_backend/internal/events"
	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/investigations/repository"
)

// FilterKnownExperts drops candidates that already have a contact for the
// notice. Duplicates are removed; first-seen order is preserved.
func (s *Service) FilterKnownExperts(ctx context.Context, notice domain.Notice, candidates []int64) ([]int64, error) {
	return filterKnownExperts(ctx, s.repo, notice.ID, candidates)
}

// StoreContacts creates one PENDING contact per expert. Callers are expected
// to have filtered known experts first.
func (s *Service) StoreContacts(ctx context.Context, notice domain.Notice, experts []int64) ([]domain.Contact, error) {
	var out []domain.Contact
	err := s.repo.WithinTx(ctx, func(store repository.Store) error {
		var err error
		out, err = storeContacts(ctx, store, notice, experts, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TargetExperts filters and stores in one transaction, then notifies each
// new contact on topic.
func (s *Service) TargetExperts(ctx context.Context, noticeID int64, candidates []int64, topic string) ([]domain.Contact, error) {
	var created []domain.Contact
	var notice *domain.Notice

	err := s.repo.WithinTx(ctx, func(store repository.Store) error {
		var err error
		notice, err = store.GetNotice(ctx, noticeID)
		if err != nil {
			return err
		}

		fresh, err := filterKnownExperts(ctx, store, noticeID, candidates)
		if err != nil {
			return err
		}
		created, err = storeContacts(ctx, store, *notice, fresh, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(created) == 0 {
		return created, nil
	}

	contactIDs := make([]int64, 0, len(created))
	expertIDs := make([]int64, 0, len(created))
	for i := range created {
		s.notify(ctx, topic, &created[i])
		contactIDs = append(contactIDs, created[i].ID)
		expertIDs = append(expertIDs, created[i].ExpertID)
	}

	s.log.Info("experts targeted", "noticeId", noticeID, "created", len(created), "candidates", len(candidates))
	s.publish(ctx, events.ExpertsTargeted{
		BaseEvent:    events.NewBaseEvent(),
		NoticeID:     noticeID,
		JournalistID: notice.JournalistID,
		ContactIDs:   contactIDs,
		ExpertIDs:    expertIDs,
	})
	return created, nil
}

func filterKnownExperts(ctx context.Context, reader repository.ContactReader, noticeID int64, candidates []int64) ([]int64, error) {
	unique := dedupe(candidates)
	if len(unique) == 0 {
		return []int64{}, nil
	}

	known, err := reader.KnownExpertIDs(ctx, noticeID, unique)
	if err != nil {
		return nil, err
	}

	out := make([]int64, 0, len(unique))
	for _, id := range unique {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func storeContacts(ctx context.Context, writer repository.ContactWriter, notice domain.Notice, experts []int64, now time.Time) ([]domain.Contact, error) {
	if len(experts) == 0 {
		return []domain.Contact{}, nil
	}

	contacts := make([]*domain.Contact, 0, len(experts))
	for _, expertID := range experts {
		contacts = append(contacts, domain.NewContact(notice, expertID, now))
	}
	if err := writer.InsertContacts(ctx, contacts); err != nil {
		return nil, err
	}

	out := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, *c)
	}
	return out, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
