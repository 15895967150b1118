// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package token issues and verifies the HS256 bearer tokens handed out at
// login. A token carries the user id as its subject and the role claim the
// admin endpoints check.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// DefaultTTL is the lifetime of a token when none is configured.
const DefaultTTL = 24 * time.Hour

const issuer = "jellyarcade"

// ErrInvalid is returned for any token that fails verification.
var ErrInvalid = errors.New("invalid token")

// Claims is the payload of an access token.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a uuid.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Maker signs and parses tokens with a shared secret.
type Maker struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewMaker creates a Maker. A non-positive ttl selects DefaultTTL.
func NewMaker(secret string, ttl time.Duration) *Maker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Maker{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token for the user with the given role.
func (m *Maker) Generate(userID uuid.UUID, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, expiry and issuer of raw and returns its
// claims. Every failure wraps ErrInvalid.
func (m *Maker) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrInvalid, err)
	}
	if claims.Role != models.RoleUser && claims.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, claims.Role)
	}
	return claims, nil
}
