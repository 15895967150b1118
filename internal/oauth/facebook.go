// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"jellyarcade/internal/config"
	"jellyarcade/internal/models"
)

// GraphURL is the Facebook Graph API profile endpoint.
const GraphURL = "https://graph.facebook.com/v19.0/me?fields=id,name,email,picture.type(large)"

// Facebook signs users in with Facebook Login. Facebook does not issue an
// id_token, so the profile is read from the Graph API with the access token.
type Facebook struct {
	oauth    *oauth2.Config
	graphURL string
}

// NewFacebook creates the provider from its client registration.
func NewFacebook(reg config.OAuthProvider) *Facebook {
	return &Facebook{
		oauth: &oauth2.Config{
			ClientID:     reg.ClientID,
			ClientSecret: reg.ClientSecret,
			RedirectURL:  reg.RedirectURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		},
		graphURL: GraphURL,
	}
}

// Name implements Provider.
func (f *Facebook) Name() models.Provider { return models.ProviderFacebook }

// AuthCodeURL implements Provider. Facebook has no nonce parameter.
func (f *Facebook) AuthCodeURL(state, _ string) string {
	return f.oauth.AuthCodeURL(state)
}

// Profile implements Provider.
func (f *Facebook) Profile(ctx context.Context, code, _ string) (models.SocialProfile, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: facebook code: %w", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL, nil)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: graph request: %w", ErrExchange, err)
	}
	resp, err := f.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: graph call: %w", ErrExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SocialProfile{}, fmt.Errorf("%w: graph status %d: %s", ErrExchange, resp.StatusCode, body)
	}

	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return models.SocialProfile{}, fmt.Errorf("%w: graph decode: %w", ErrExchange, err)
	}
	if me.ID == "" {
		return models.SocialProfile{}, fmt.Errorf("%w: graph profile has no id", ErrExchange)
	}

	return models.SocialProfile{
		ID:          me.ID,
		DisplayName: me.Name,
		Email:       me.Email,
		PhotoURL:    me.Picture.Data.URL,
	}, nil
}
