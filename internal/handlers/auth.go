// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"jellyarcade/internal/models"
	"jellyarcade/internal/oauth"
	"jellyarcade/internal/service"
	"jellyarcade/internal/session"
)

// Auth serves registration, password login and the social login flow.
type Auth struct {
	identity   *service.IdentityService
	providers  oauth.Registry
	states     *session.Store
	successURL string
}

// NewAuth creates the auth handlers. When successURL is set the social
// callback redirects there with the token in the fragment instead of
// answering with JSON.
func NewAuth(identity *service.IdentityService, providers oauth.Registry, states *session.Store, successURL string) *Auth {
	return &Auth{identity: identity, providers: providers, states: states, successURL: successURL}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a user account and signs it in.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("user registered", "user_id", sess.User.ID)
	respond(w, r, http.StatusCreated, sess)
}

// Login signs in with email and password.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, sess)
}

// Begin starts the social login flow by redirecting to the provider.
func (h *Auth) Begin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(r)
	if !ok {
		respondError(w, r, &service.Error{Kind: service.KindNotFound, Message: "login provider not available"})
		return
	}

	state, data, err := h.states.Create(r.Context(), w, p.Name())
	if err != nil {
		respondError(w, r, err)
		return
	}
	http.Redirect(w, r, p.AuthCodeURL(state, data.Nonce), http.StatusFound)
}

// Callback completes the social login flow started by Begin.
func (h *Auth) Callback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(r)
	if !ok {
		respondError(w, r, &service.Error{Kind: service.KindNotFound, Message: "login provider not available"})
		return
	}

	q := r.URL.Query()
	data, err := h.states.Consume(r.Context(), w, r, q.Get("state"))
	if err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			respondError(w, r, badRequest("invalid or expired login state"))
			return
		}
		respondError(w, r, err)
		return
	}
	if data.Provider != p.Name() {
		respondError(w, r, badRequest("invalid or expired login state"))
		return
	}
	if reason := q.Get("error"); reason != "" {
		slog.Info("social login declined", "provider", p.Name(), "reason", reason)
		respondError(w, r, service.ErrInvalidCredentials)
		return
	}
	code := q.Get("code")
	if code == "" {
		respondError(w, r, badRequest("missing authorization code"))
		return
	}

	profile, err := p.Profile(r.Context(), code, data.Nonce)
	if err != nil {
		slog.Warn("social login failed", "provider", p.Name(), "error", err)
		if errors.Is(err, oauth.ErrExchange) {
			respondError(w, r, service.ErrInvalidCredentials)
			return
		}
		respondError(w, r, err)
		return
	}

	sess, err := h.identity.LoginWithSocial(r.Context(), p.Name(), profile)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if h.successURL != "" {
		http.Redirect(w, r, h.successURL+"#token="+url.QueryEscape(sess.Token), http.StatusFound)
		return
	}
	respond(w, r, http.StatusOK, sess)
}

func (h *Auth) provider(r *http.Request) (oauth.Provider, bool) {
	return h.providers.Get(models.Provider(chi.URLParam(r, "provider")))
}
