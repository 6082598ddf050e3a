package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-abc",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestVerify_NotConfigured(t *testing.T) {
	v := NewVerifier("", "")

	_, err := v.Verify(context.Background(), "some-token")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		w.Write([]byte(`{"id":"user-123","email":"a@b.c"}`))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")

	userID, err := v.Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected user-123, got %q", userID)
	}
}

func TestVerify_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")

	_, err := v.Verify(context.Background(), "tok-1")
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestVerify_UnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")

	_, err := v.Verify(context.Background(), "tok-1")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"a@b.c"}`))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")

	_, err := v.Verify(context.Background(), "tok-1")
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestVerify_TransportFailure(t *testing.T) {
	v := NewVerifier("http://127.0.0.1:1", "anon-key")
	v.httpClient.Timeout = 500 * time.Millisecond

	_, err := v.Verify(context.Background(), "tok-1")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrBadResponse) {
		t.Fatalf("transport failure should not map to a provider error, got %v", err)
	}
}

func TestVerify_ExpiredTokenSkipsProvider(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id":"user-123"}`))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")

	_, err := v.Verify(context.Background(), signedToken(t, time.Now().Add(-time.Hour)))
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for expired token, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("provider should not be called for an expired token")
	}
}

func TestVerify_CachesVerifiedTokens(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id":"user-123"}`))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")
	tok := signedToken(t, time.Now().Add(time.Hour))

	for i := 0; i < 3; i++ {
		userID, err := v.Verify(context.Background(), tok)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != "user-123" {
			t.Fatalf("expected user-123, got %q", userID)
		}
	}

	if calls.Load() != 1 {
		t.Fatalf("expected 1 provider call, got %d", calls.Load())
	}
}

func TestVerify_CacheExpires(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id":"user-123"}`))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, "anon-key")
	now := time.Now()
	v.now = func() time.Time { return now }
	tok := signedToken(t, now.Add(time.Hour))

	v.Verify(context.Background(), tok)
	now = now.Add(2 * cacheTTL)
	v.Verify(context.Background(), tok)

	if calls.Load() != 2 {
		t.Fatalf("expected cache to expire and re-verify, got %d calls", calls.Load())
	}
}
