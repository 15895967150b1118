// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service implements the catalog, identity, user and notification
// operations on top of the repository ports in ports.go. Services hold no
// authoritative state between calls; everything lives in the repositories.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error. The HTTP layer maps kinds to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindDuplicateEmail
	KindInvalidCredentials
	KindNotFound
	KindForbidden
	KindHasChildren
	KindImageUpload
	KindCyclicRelationship
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindValidation:         "validation",
	KindConflict:           "conflict",
	KindDuplicateEmail:     "duplicate email",
	KindInvalidCredentials: "invalid credentials",
	KindNotFound:           "not found",
	KindForbidden:          "forbidden",
	KindHasChildren:        "has children",
	KindImageUpload:        "image upload",
	KindCyclicRelationship: "cyclic relationship",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by every service operation. Message is
// safe to show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrHasChildren        = &Error{Kind: KindHasChildren}
	ErrImageUpload        = &Error{Kind: KindImageUpload}
	ErrCyclicRelationship = &Error{Kind: KindCyclicRelationship}
)

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func newError(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}
