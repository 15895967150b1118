// Package session keeps the short-lived state of social login flows in
// Valkey. A state is bound to the browser by a cookie, expires after a few
// minutes and can be consumed exactly once.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"jellyarcade/internal/models"
)

const (
	// CookieName is the cookie binding a login state to the browser.
	CookieName = "ja_oauth_state"

	// DefaultTTL is how long a login state lives in Valkey.
	DefaultTTL = 5 * time.Minute

	// keyPrefix namespaces state keys in Valkey to avoid collisions.
	keyPrefix = "oauth_state:"

	// idLength is the byte length of the random state (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrInvalidState is returned when the state is unknown, expired, already
// used, or not bound to the requesting browser.
var ErrInvalidState = errors.New("invalid oauth state")

// Data is the payload stored under a login state.
type Data struct {
	Provider  models.Provider `json:"provider"`
	Nonce     string          `json:"nonce"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store manages login states in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a state store backed by the given Valkey client. secure
// marks the binding cookie Secure, which production deployments behind TLS
// should set.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create starts a login flow for provider. It stores a fresh state with a
// nonce, sets the binding cookie and returns the state to send to the
// provider.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, provider models.Provider) (string, *Data, error) {
	state, err := generateID()
	if err != nil {
		return "", nil, fmt.Errorf("oauth state create: %w", err)
	}
	nonce, err := generateID()
	if err != nil {
		return "", nil, fmt.Errorf("oauth nonce create: %w", err)
	}

	data := &Data{Provider: provider, Nonce: nonce, CreatedAt: time.Now()}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("oauth state marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+state, payload, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("oauth state store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return state, data, nil
}

// Consume validates the state echoed by the provider against the binding
// cookie and deletes it atomically, so a replayed callback fails. The
// cookie is cleared either way.
func (s *Store) Consume(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (*Data, error) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	cookie, err := r.Cookie(CookieName)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return nil, ErrInvalidState
	}

	payload, err := s.client.GetDel(ctx, keyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("oauth state get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("oauth state unmarshal: %w", err)
	}
	return &data, nil
}

// generateID creates a cryptographically random identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
