// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
)

// Notifications serves the caller's notification inbox.
type Notifications struct {
	notifications *service.NotificationService
}

// NewNotifications creates the notification handlers.
func NewNotifications(notifications *service.NotificationService) *Notifications {
	return &Notifications{notifications: notifications}
}

type broadcastRequest struct {
	Title   requiredText `json:"title"`
	Message longText     `json:"message"`
}

type countResponse struct {
	Count int `json:"count"`
}

type updatedResponse struct {
	Updated int64 `json:"updated"`
}

type createdResponse struct {
	Created int64 `json:"created"`
}

// List returns the caller's notifications, newest first.
func (h *Notifications) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	list, err := h.notifications.List(r.Context(), ident.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	loc := localeOf(r)
	out := make([]models.NotificationView, len(list))
	for i := range list {
		out[i] = list[i].Localize(loc)
	}
	respond(w, r, http.StatusOK, out)
}

// UnreadCount returns how many notifications the caller has not read.
func (h *Notifications) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.UnreadCount(r.Context(), ident.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, countResponse{Count: n})
}

// MarkRead marks one of the caller's notifications read.
func (h *Notifications) MarkRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, ident.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "notification marked as read")
}

// MarkAllRead marks every unread notification of the caller read.
func (h *Notifications) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), ident.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, updatedResponse{Updated: n})
}

// Broadcast sends a system notification to every user. Admin only.
func (h *Notifications) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	n, err := h.notifications.Broadcast(r.Context(), req.Title.localized(), req.Message.localized())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, createdResponse{Created: n})
}
