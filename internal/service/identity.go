// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"jellyarcade/internal/models"
	"jellyarcade/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Session is what a successful login returns.
type Session struct {
	Token string         `json:"token"`
	User  models.Summary `json:"user"`
}

// IdentityService registers users and issues access tokens.
type IdentityService struct {
	users  UserRepository
	tokens TokenIssuer

	// Cost is the bcrypt cost for new password hashes.
	Cost int
}

// NewIdentityService wires an IdentityService with the default bcrypt cost.
func NewIdentityService(users UserRepository, tokens TokenIssuer) *IdentityService {
	return &IdentityService{users: users, tokens: tokens, Cost: bcrypt.DefaultCost}
}

// Register creates a user account with the user role.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, validationError("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, &Error{Kind: KindDuplicateEmail, Message: "email is already registered"}
	}

	hash, err := hashPassword(password, s.Cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Avatar:       models.DefaultAvatar,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &Error{Kind: KindDuplicateEmail, Message: "email is already registered", Err: err}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.session(u)
}

// Login checks credentials. Unknown email, wrong password and social-only
// accounts all fail the same way.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := &Error{Kind: KindInvalidCredentials, Message: "invalid email or password"}

	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil || !u.HasPassword() {
		return nil, invalid
	}
	if !checkPassword(u, password) {
		return nil, invalid
	}
	return s.session(u)
}

// LoginWithSocial signs in the user behind an external profile. Accounts
// are matched by provider id, then linked by email, then created.
func (s *IdentityService) LoginWithSocial(ctx context.Context, provider models.Provider, p models.SocialProfile) (*Session, error) {
	if !provider.Valid() {
		return nil, validationError("unsupported provider %q", provider)
	}
	if p.ID == "" {
		return nil, validationError("provider profile has no id")
	}

	u, err := s.users.FindByProvider(ctx, provider, p.ID)
	if err != nil {
		return nil, fmt.Errorf("find user by provider: %w", err)
	}
	if u != nil {
		return s.session(u)
	}

	email := normalizeEmail(p.Email)
	if email != "" {
		u, err = s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		if u != nil {
			if err := s.users.LinkProvider(ctx, u.ID, provider, p.ID); err != nil {
				return nil, fmt.Errorf("link provider: %w", err)
			}
			return s.session(u)
		}
	}

	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = "Player"
	}
	avatar := p.PhotoURL
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	externalID := p.ID
	u = &models.User{Name: name, Email: email, Role: models.RoleUser, Avatar: avatar}
	switch provider {
	case models.ProviderGoogle:
		u.GoogleID = &externalID
	case models.ProviderFacebook:
		u.FacebookID = &externalID
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &Error{Kind: KindConflict, Message: "account already exists, retry", Err: err}
		}
		return nil, fmt.Errorf("create social user: %w", err)
	}
	return s.session(u)
}

func (s *IdentityService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: u.Summary()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword verifies a plaintext password against the user's stored hash.
func checkPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
