// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"jellyarcade/internal/config"
	"jellyarcade/internal/models"
)

// GoogleIssuer is the OpenID Connect issuer of Google accounts.
const GoogleIssuer = "https://accounts.google.com"

// Google signs users in with Google through OpenID Connect. The identity
// comes from the verified id_token, so no extra userinfo call is made.
type Google struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers the issuer's endpoints and keys.
func NewGoogle(ctx context.Context, issuer string, reg config.OAuthProvider) (*Google, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     reg.ClientID,
			ClientSecret: reg.ClientSecret,
			RedirectURL:  reg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: reg.ClientID}),
	}, nil
}

// Name implements Provider.
func (g *Google) Name() models.Provider { return models.ProviderGoogle }

// AuthCodeURL implements Provider.
func (g *Google) AuthCodeURL(state, nonce string) string {
	return g.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Profile implements Provider. The email is only trusted when Google
// reports it verified.
func (g *Google) Profile(ctx context.Context, code, nonce string) (models.SocialProfile, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: google code: %w", ErrExchange, err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return models.SocialProfile{}, fmt.Errorf("%w: google response has no id_token", ErrExchange)
	}

	idToken, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: google id_token: %w", ErrExchange, err)
	}
	if idToken.Nonce != nonce {
		return models.SocialProfile{}, fmt.Errorf("%w: google nonce mismatch", ErrExchange)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: google claims: %w", ErrExchange, err)
	}

	p := models.SocialProfile{
		ID:          idToken.Subject,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}
	if claims.EmailVerified {
		p.Email = claims.Email
	}
	return p, nil
}
