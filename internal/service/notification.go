// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// NotificationService creates and reads per-user notifications.
type NotificationService struct {
	notifications NotificationRepository
}

// NewNotificationService wires a NotificationService.
func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// NotifyNewGame sends one NEW_GAME notification to every user.
func (s *NotificationService) NotifyNewGame(ctx context.Context, g *models.Game) error {
	d := models.NotificationDraft{
		Title: models.Localized{TR: "Yeni Oyun Eklendi", EN: "New Game Added"},
		Message: models.Localized{
			TR: fmt.Sprintf("%s oyunu eklendi", g.Title.TR),
			EN: fmt.Sprintf("%s has been added", g.Title.EN),
		},
		Type:          models.NotificationNewGame,
		RelatedGameID: &g.ID,
	}
	if _, err := s.notifications.CreateForAllUsers(ctx, d); err != nil {
		return fmt.Errorf("fan out new game: %w", err)
	}
	return nil
}

// NotifyFavoriteCategory sends one FAVORITE notification to every user who
// favorited c.
func (s *NotificationService) NotifyFavoriteCategory(ctx context.Context, g *models.Game, c *models.Category) error {
	d := models.NotificationDraft{
		Title: models.Localized{TR: "Favori Kategorinize Yeni Oyun", EN: "New Game in Favorite Category"},
		Message: models.Localized{
			TR: fmt.Sprintf("%s kategorisine %s eklendi", c.Name.TR, g.Title.TR),
			EN: fmt.Sprintf("%s added to %s", g.Title.EN, c.Name.EN),
		},
		Type:          models.NotificationFavorite,
		RelatedGameID: &g.ID,
	}
	if _, err := s.notifications.CreateForCategoryFans(ctx, c.ID, d); err != nil {
		return fmt.Errorf("fan out favorite category: %w", err)
	}
	return nil
}

// Broadcast sends a SYSTEM notification to every user and returns how
// many were created.
func (s *NotificationService) Broadcast(ctx context.Context, title, message models.Localized) (int64, error) {
	if !title.Complete() || !message.Complete() {
		return 0, validationError("title and message are required in both languages")
	}
	n, err := s.notifications.CreateForAllUsers(ctx, models.NotificationDraft{
		Title:   title,
		Message: message,
		Type:    models.NotificationSystem,
	})
	if err != nil {
		return 0, fmt.Errorf("broadcast notification: %w", err)
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list, err := s.notifications.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read. A notification owned by someone
// else is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return notFound("notification")
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
