// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// NotificationStore is the in-memory notification repository.
type NotificationStore struct {
	db *DB
}

// fanOut creates one notification per recipient selected by keep.
func (s *NotificationStore) fanOut(d models.NotificationDraft, keep func(*userRow) bool) int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	recipients := make([]*userRow, 0, len(s.db.users))
	for _, u := range s.db.users {
		if keep(u) {
			recipients = append(recipients, u)
		}
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].seq < recipients[j].seq })

	now := s.db.now()
	for _, u := range recipients {
		s.db.notifications = append(s.db.notifications, &notificationRow{
			Notification: models.Notification{
				ID:            uuid.New(),
				UserID:        u.ID,
				Title:         d.Title,
				Message:       d.Message,
				Type:          d.Type,
				RelatedGameID: cloneUUID(d.RelatedGameID),
				CreatedAt:     now,
			},
			seq: s.db.next(),
		})
	}
	return int64(len(recipients))
}

func (s *NotificationStore) CreateForAllUsers(ctx context.Context, d models.NotificationDraft) (int64, error) {
	return s.fanOut(d, func(*userRow) bool { return true }), nil
}

func (s *NotificationStore) CreateForCategoryFans(ctx context.Context, categoryID uuid.UUID, d models.NotificationDraft) (int64, error) {
	return s.fanOut(d, func(u *userRow) bool { return u.favoriteCats[categoryID] }), nil
}

// ListForUser returns newest first with the related game attached when
// it still exists.
func (s *NotificationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	list := []models.Notification{}
	for i := len(s.db.notifications) - 1; i >= 0; i-- {
		r := s.db.notifications[i]
		if r.UserID != userID {
			continue
		}
		n := r.Notification
		n.RelatedGameID = cloneUUID(r.RelatedGameID)
		if n.RelatedGameID != nil {
			if g, ok := s.db.games[*n.RelatedGameID]; ok {
				n.RelatedGame = &models.Game{ID: g.ID, Title: g.Title, Slug: g.Slug}
			}
		}
		list = append(list, n)
	}
	return list, nil
}

func (s *NotificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, r := range s.db.notifications {
		if r.UserID == userID && !r.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.notifications {
		if r.ID == id && r.UserID == userID {
			r.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, r := range s.db.notifications {
		if r.UserID == userID && !r.IsRead {
			r.IsRead = true
			n++
		}
	}
	return n, nil
}
