// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// NotificationStore manages per-user notifications.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore returns a new NotificationStore.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// CreateForAllUsers inserts one copy of d for every user and returns the
// number of rows created.
func (s *NotificationStore) CreateForAllUsers(ctx context.Context, d models.NotificationDraft) (int64, error) {
	return s.fanOut(ctx, "notify all users", `
		INSERT INTO notifications (user_id, title, message, type, related_game_id)
		SELECT id, $1::jsonb, $2::jsonb, $3::text, $4::uuid FROM users`,
		d.Title, d.Message, d.Type, d.RelatedGameID)
}

// CreateForCategoryFans inserts one copy of d for every user who favorited
// the category.
func (s *NotificationStore) CreateForCategoryFans(ctx context.Context, categoryID uuid.UUID, d models.NotificationDraft) (int64, error) {
	return s.fanOut(ctx, "notify category fans", `
		INSERT INTO notifications (user_id, title, message, type, related_game_id)
		SELECT user_id, $1::jsonb, $2::jsonb, $3::text, $4::uuid FROM user_favorite_categories WHERE category_id = $5`,
		d.Title, d.Message, d.Type, d.RelatedGameID, categoryID)
}

func (s *NotificationStore) fanOut(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}

// ListForUser returns the user's notifications newest first. The related
// game is attached when it still exists.
func (s *NotificationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.user_id, n.title, n.message, n.type, n.related_game_id, n.is_read, n.created_at,
		       g.title, g.slug_tr, g.slug_en
		FROM notifications n
		LEFT JOIN games g ON g.id = n.related_game_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var (
			n              models.Notification
			gameTitle      models.Localized
			slugTR, slugEN sql.NullString
		)
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.RelatedGameID, &n.IsRead, &n.CreatedAt,
			&gameTitle, &slugTR, &slugEN,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.RelatedGameID != nil && slugTR.Valid {
			n.RelatedGame = &models.Game{
				ID:    *n.RelatedGameID,
				Title: gameTitle,
				Slug:  models.Localized{TR: slugTR.String, EN: slugEN.String},
			}
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount returns the number of unread notifications of the user.
func (s *NotificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks a notification read when it belongs to userID.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.fanOut(ctx, "mark all notifications read", `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
}
