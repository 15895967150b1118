// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationNewGame    NotificationType = "NEW_GAME"
	NotificationGameUpdate NotificationType = "GAME_UPDATE"
	NotificationSystem     NotificationType = "SYSTEM"
	NotificationFavorite   NotificationType = "FAVORITE"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewGame, NotificationGameUpdate, NotificationSystem, NotificationFavorite:
		return true
	}
	return false
}

// Notification is a message addressed to one user.
type Notification struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user"`
	Title         Localized        `json:"title"`
	Message       Localized        `json:"message"`
	Type          NotificationType `json:"type"`
	RelatedGameID *uuid.UUID       `json:"relatedGameId"`
	IsRead        bool             `json:"isRead"`
	CreatedAt     time.Time        `json:"createdAt"`

	// Populated by store methods that join the related game.
	RelatedGame *Game `json:"-"`
}

// NotificationDraft is the body of a fan-out: one Notification is created
// from it for every recipient.
type NotificationDraft struct {
	Title         Localized
	Message       Localized
	Type          NotificationType
	RelatedGameID *uuid.UUID
}

// NotificationView is a notification projected to a locale.
type NotificationView struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	RelatedGame *GameRef         `json:"relatedGame"`
	IsRead      bool             `json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Localize projects the notification to loc.
func (n *Notification) Localize(loc Locale) NotificationView {
	v := NotificationView{
		ID:        n.ID,
		Title:     n.Title.Get(loc),
		Message:   n.Message.Get(loc),
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.RelatedGame != nil {
		ref := n.RelatedGame.Ref(loc)
		v.RelatedGame = &GameRef{ID: ref.ID, Title: ref.Title, Slug: ref.Slug}
	}
	return v
}
