package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"jellyarcade/internal/config"
	"jellyarcade/internal/models"
)

var testRegistration = config.OAuthProvider{
	ClientID:     "client-123",
	ClientSecret: "shh",
	RedirectURL:  "https://api.example.com/auth/callback",
}

// fakeIssuer is a minimal OpenID Connect provider: discovery, keys and a
// token endpoint returning whatever id_token the test prepared.
type fakeIssuer struct {
	srv     *httptest.Server
	key     *rsa.PrivateKey
	idToken string
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeIssuer{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"issuer":                                f.srv.URL,
			"authorization_endpoint":                f.srv.URL + "/auth",
			"token_endpoint":                        f.srv.URL + "/token",
			"jwks_uri":                              f.srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": "test",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp := map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600}
		if f.idToken != "" {
			resp["id_token"] = f.idToken
		}
		writeJSON(w, resp)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// sign issues an id_token for the fake issuer with the given overrides.
func (f *fakeIssuer) sign(t *testing.T, overrides jwt.MapClaims) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":            f.srv.URL,
		"sub":            "google-sub-1",
		"aud":            testRegistration.ClientID,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
		"nonce":          "nonce-1",
		"email":          "ada@example.com",
		"email_verified": true,
		"name":           "Ada Lovelace",
		"picture":        "https://lh3.example.com/ada.jpg",
	}
	for k, v := range overrides {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test"
	raw, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return raw
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	issuer := newFakeIssuer(t)
	g, err := NewGoogle(context.Background(), issuer.srv.URL, testRegistration)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, g.Name())

	u, err := url.Parse(g.AuthCodeURL("state-1", "nonce-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, issuer.srv.URL+"/auth", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "nonce-1", q.Get("nonce"))
	assert.Equal(t, testRegistration.ClientID, q.Get("client_id"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestGoogle_Profile(t *testing.T) {
	issuer := newFakeIssuer(t)
	g, err := NewGoogle(context.Background(), issuer.srv.URL, testRegistration)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("verified", func(t *testing.T) {
		issuer.idToken = issuer.sign(t, nil)
		p, err := g.Profile(ctx, "good-code", "nonce-1")
		require.NoError(t, err)
		assert.Equal(t, models.SocialProfile{
			ID:          "google-sub-1",
			DisplayName: "Ada Lovelace",
			Email:       "ada@example.com",
			PhotoURL:    "https://lh3.example.com/ada.jpg",
		}, p)
	})

	t.Run("unverified email dropped", func(t *testing.T) {
		issuer.idToken = issuer.sign(t, jwt.MapClaims{"email_verified": false})
		p, err := g.Profile(ctx, "good-code", "nonce-1")
		require.NoError(t, err)
		assert.Empty(t, p.Email)
		assert.Equal(t, "google-sub-1", p.ID)
	})

	failures := []struct {
		name  string
		token func() string
		code  string
	}{
		{"bad code", func() string { return issuer.sign(t, nil) }, "bad-code"},
		{"no id_token", func() string { return "" }, "good-code"},
		{"nonce mismatch", func() string { return issuer.sign(t, jwt.MapClaims{"nonce": "other"}) }, "good-code"},
		{"wrong audience", func() string { return issuer.sign(t, jwt.MapClaims{"aud": "someone-else"}) }, "good-code"},
		{"expired", func() string {
			return issuer.sign(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
		}, "good-code"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			issuer.idToken = tt.token()
			_, err := g.Profile(ctx, tt.code, "nonce-1")
			assert.ErrorIs(t, err, ErrExchange)
		})
	}
}

func TestNewGoogle_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewGoogle(context.Background(), srv.URL, testRegistration)
	assert.Error(t, err)
}

// newFakeFacebook serves the token endpoint and the Graph profile.
func newFakeFacebook(t *testing.T, graph http.HandlerFunc) *Facebook {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, map[string]any{"access_token": "fb-token", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/me", graph)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := NewFacebook(testRegistration)
	f.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/dialog", TokenURL: srv.URL + "/token"}
	f.graphURL = srv.URL + "/me?fields=id,name,email,picture.type(large)"
	return f
}

func TestFacebook_Profile(t *testing.T) {
	f := newFakeFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fb-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"id":    "fb-42",
			"name":  "Grace Hopper",
			"email": "grace@example.com",
			"picture": map[string]any{
				"data": map[string]any{"url": "https://graph.example.com/grace.jpg"},
			},
		})
	})

	p, err := f.Profile(context.Background(), "good-code", "")
	require.NoError(t, err)
	assert.Equal(t, models.SocialProfile{
		ID:          "fb-42",
		DisplayName: "Grace Hopper",
		Email:       "grace@example.com",
		PhotoURL:    "https://graph.example.com/grace.jpg",
	}, p)
}

func TestFacebook_ProfileWithoutEmail(t *testing.T) {
	f := newFakeFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "fb-7", "name": "No Mail"})
	})

	p, err := f.Profile(context.Background(), "good-code", "")
	require.NoError(t, err)
	assert.Equal(t, "fb-7", p.ID)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.PhotoURL)
}

func TestFacebook_ProfileFailures(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		graph http.HandlerFunc
	}{
		{"bad code", "bad-code", func(w http.ResponseWriter, r *http.Request) {}},
		{"graph error", "good-code", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusBadRequest)
		}},
		{"graph garbage", "good-code", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"graph without id", "good-code", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"name": "Ghost"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFacebook(t, tt.graph)
			_, err := f.Profile(context.Background(), tt.code, "")
			assert.ErrorIs(t, err, ErrExchange)
		})
	}
}

func TestFacebook_AuthCodeURL(t *testing.T) {
	f := NewFacebook(testRegistration)
	assert.Equal(t, models.ProviderFacebook, f.Name())

	u, err := url.Parse(f.AuthCodeURL("state-9", "ignored"))
	require.NoError(t, err)
	assert.Equal(t, "state-9", u.Query().Get("state"))
	assert.Empty(t, u.Query().Get("nonce"))
	assert.Equal(t, "email public_profile", u.Query().Get("scope"))
}

func TestNewRegistry(t *testing.T) {
	cfg := &config.Config{Facebook: testRegistration}
	reg := NewRegistry(context.Background(), cfg)

	_, ok := reg.Get(models.ProviderFacebook)
	assert.True(t, ok)
	_, ok = reg.Get(models.ProviderGoogle)
	assert.False(t, ok, "google is not configured")
}
