package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// No provider URL/key configured; an operator error, not a caller error
	ErrNotConfigured = errors.New("identity provider not configured")

	// Provider rejected the token (or the token is already expired)
	ErrSessionInvalid = errors.New("invalid or expired session")

	// Provider answered with something that is not a user object
	ErrBadResponse = errors.New("invalid auth response")

	// Provider answered with a user object missing an identifier
	ErrBadPayload = errors.New("invalid user payload")
)

// Verifier resolves bearer tokens to user IDs via the identity provider's
// get-current-user endpoint. Verified tokens are cached briefly so bursts
// from one client cost a single provider round-trip.
type Verifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	userID    string
	expiresAt time.Time
}

const cacheTTL = 60 * time.Second

func NewVerifier(baseURL, apiKey string) *Verifier {
	return &Verifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

func (v *Verifier) Configured() bool {
	return v.baseURL != "" && v.apiKey != ""
}

// Verify resolves a bearer token to an opaque user identifier.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	if !v.Configured() {
		return "", ErrNotConfigured
	}

	if userID, ok := v.cached(token); ok {
		return userID, nil
	}

	// Supabase access tokens are JWTs; an already-expired one can be
	// rejected without a provider round-trip. Signature checking stays
	// with the provider, so tokens that fail to parse go through as-is.
	if exp, ok := tokenExpiry(token); ok && !exp.After(v.now()) {
		return "", ErrSessionInvalid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("auth verification failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth verification failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", ErrSessionInvalid
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", ErrBadResponse
	}

	if user.ID == "" {
		return "", ErrBadPayload
	}

	v.store(token, user.ID)

	return user.ID, nil
}

func (v *Verifier) cached(token string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.cache[token]
	if !ok || !v.now().Before(entry.expiresAt) {
		return "", false
	}
	return entry.userID, true
}

func (v *Verifier) store(token, userID string) {
	expiresAt := v.now().Add(cacheTTL)

	// Never cache past the token's own lifetime
	if exp, ok := tokenExpiry(token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}

	v.mu.Lock()
	v.cache[token] = cacheEntry{userID: userID, expiresAt: expiresAt}
	v.mu.Unlock()
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
