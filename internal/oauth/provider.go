// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package oauth implements the authorization code flow against the social
// login providers and turns their answer into a models.SocialProfile.
package oauth

import (
	"context"
	"errors"
	"log/slog"

	"jellyarcade/internal/config"
	"jellyarcade/internal/models"
)

// ErrExchange is wrapped by every failure to turn a callback into a profile.
var ErrExchange = errors.New("oauth exchange failed")

// Provider is one social login provider.
type Provider interface {
	Name() models.Provider
	// AuthCodeURL returns the consent page URL carrying state and nonce.
	AuthCodeURL(state, nonce string) string
	// Profile exchanges the callback code and returns the verified identity.
	Profile(ctx context.Context, code, nonce string) (models.SocialProfile, error)
}

// Registry looks providers up by name.
type Registry map[models.Provider]Provider

// Get returns the provider registered under name.
func (r Registry) Get(name models.Provider) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

// NewRegistry builds a provider for every configured registration. A
// provider that fails to initialise is logged and left out so the rest of
// the API still starts.
func NewRegistry(ctx context.Context, cfg *config.Config) Registry {
	reg := Registry{}
	if cfg.Google.Enabled() {
		g, err := NewGoogle(ctx, GoogleIssuer, cfg.Google)
		if err != nil {
			slog.Error("google login disabled", "error", err)
		} else {
			reg[g.Name()] = g
		}
	}
	if cfg.Facebook.Enabled() {
		f := NewFacebook(cfg.Facebook)
		reg[f.Name()] = f
	}
	slog.Info("social login providers", "count", len(reg))
	return reg
}
