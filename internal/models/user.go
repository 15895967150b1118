// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultAvatar is assigned to accounts that never uploaded an avatar.
const DefaultAvatar = "default-avatar.png"

// RecentlyPlayedLimit caps the recently played list.
const RecentlyPlayedLimit = 5

// Provider names an external identity provider used for social login.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderFacebook
}

// User is a site member. Social-only accounts have an empty PasswordHash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar"`
	GoogleID     *string   `json:"-"`
	FacebookID   *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasCustomAvatar reports whether the avatar points at an uploaded image.
func (u *User) HasCustomAvatar() bool {
	return u.Avatar != "" && !strings.Contains(u.Avatar, "default-avatar")
}

// Summary is the public part of a user returned by login.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// Summary returns the login summary of u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// RecentPlay is one entry of a user's recently played list.
type RecentPlay struct {
	GameID   uuid.UUID `json:"gameId"`
	PlayedAt time.Time `json:"playedAt"`

	// Populated by store methods that attach games.
	Game *Game `json:"-"`
}

// RecentPlayView is a recently played entry projected to a locale.
type RecentPlayView struct {
	Game     GameRef   `json:"game"`
	PlayedAt time.Time `json:"playedAt"`
}

// Profile is the full view of the authenticated user.
type Profile struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Avatar         string           `json:"avatar"`
	Role           Role             `json:"role"`
	RecentlyPlayed []RecentPlayView `json:"recentlyPlayed"`
	Favorites      []GameRef        `json:"favorites"`
}

// SocialProfile is the identity an external provider reports after login.
type SocialProfile struct {
	ID          string
	DisplayName string
	Email       string
	PhotoURL    string
}
