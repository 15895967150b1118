// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the jellyarcade API.
// Handlers are grouped by resource (categories, games, users,
// notifications, auth) and receive their dependencies through the handler
// struct.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"jellyarcade/internal/service"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// messageResponse acknowledges writes that return no entity.
type messageResponse struct {
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondMessage(w http.ResponseWriter, r *http.Request, msg string) {
	respond(w, r, http.StatusOK, messageResponse{Message: msg})
}

// respondError maps a request or service error to its status code. Internal errors
// are logged in full and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var re *requestError
	if errors.As(err, &re) {
		respond(w, r, http.StatusBadRequest, errorResponse{Error: re.msg, Fields: re.fields})
		return
	}

	status := statusFor(service.KindOf(err))
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		respond(w, r, status, errorResponse{Error: "internal server error"})
		return
	}

	msg := err.Error()
	var se *service.Error
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}
	respond(w, r, status, errorResponse{Error: msg})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation,
		service.KindConflict,
		service.KindDuplicateEmail,
		service.KindHasChildren,
		service.KindImageUpload,
		service.KindCyclicRelationship:
		return http.StatusBadRequest
	case service.KindInvalidCredentials:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
