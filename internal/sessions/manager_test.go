package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/webplayer/internal/shared"
)

// tokenEndpoint is a fake provider token endpoint that counts exchanges.
type tokenEndpoint struct {
	hits    atomic.Int64
	status  int
	body    string
	delay   time.Duration
	lastReq struct {
		sync.Mutex
		grantType string
		code      string
		refresh   string
		basicAuth bool
	}
}

func (te *tokenEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		te.hits.Add(1)
		if te.delay > 0 {
			time.Sleep(te.delay)
		}

		r.ParseForm()
		te.lastReq.Lock()
		te.lastReq.grantType = r.FormValue("grant_type")
		te.lastReq.code = r.FormValue("code")
		te.lastReq.refresh = r.FormValue("refresh_token")
		_, _, te.lastReq.basicAuth = r.BasicAuth()
		te.lastReq.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if te.status != 0 && te.status != http.StatusOK {
			w.WriteHeader(te.status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprint(w, te.body)
	}
}

func newTestManager(t *testing.T, te *tokenEndpoint) (*Manager, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(te.handler())
	t.Cleanup(srv.Close)

	mgr, err := NewManager(ManagerOpts{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://localhost:3000/callback",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/api/token",
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	return mgr, srv
}

func TestNewManager(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		_, err := NewManager(ManagerOpts{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Defaults To Spotify Endpoints", func(t *testing.T) {
		mgr, err := NewManager(ManagerOpts{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		authURL := mgr.AuthURL("s")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Errorf("expected spotify auth URL, got %s", authURL)
		}
	})
}

func TestAuthURL(t *testing.T) {
	mgr, _ := newTestManager(t, &tokenEndpoint{})

	authURL := mgr.AuthURL("test_state")

	for _, want := range []string{
		"client_id=test_client_id",
		"state=test_state",
		"show_dialog=true",
		"response_type=code",
		"streaming",
		"user-modify-playback-state",
	} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth URL missing %q: %s", want, authURL)
		}
	}
}

func TestExchange(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		te := &tokenEndpoint{
			body: `{"access_token":"A1","token_type":"Bearer","refresh_token":"R1","expires_in":3600}`,
		}
		mgr, _ := newTestManager(t, te)

		before := time.Now()
		cred, err := mgr.Exchange(context.Background(), "auth_code_123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cred.AccessToken != "A1" {
			t.Errorf("expected access token A1, got %s", cred.AccessToken)
		}
		if cred.RefreshToken != "R1" {
			t.Errorf("expected refresh token R1, got %s", cred.RefreshToken)
		}

		wantExpiry := before.Add(time.Hour)
		if cred.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || cred.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
			t.Errorf("expected expiry near %v, got %v", wantExpiry, cred.ExpiresAt)
		}

		te.lastReq.Lock()
		defer te.lastReq.Unlock()
		if te.lastReq.grantType != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %s", te.lastReq.grantType)
		}
		if te.lastReq.code != "auth_code_123" {
			t.Errorf("expected code to be forwarded, got %s", te.lastReq.code)
		}
		if !te.lastReq.basicAuth {
			t.Error("expected client credentials via HTTP basic auth")
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		te := &tokenEndpoint{status: http.StatusBadRequest}
		mgr, _ := newTestManager(t, te)

		_, err := mgr.Exchange(context.Background(), "bad_code")
		if !errors.Is(err, shared.ErrExchangeFailed) {
			t.Errorf("expected ErrExchangeFailed, got %v", err)
		}
	})
}

func TestEnsure(t *testing.T) {
	t.Run("Fresh Token Skips Network", func(t *testing.T) {
		te := &tokenEndpoint{}
		mgr, _ := newTestManager(t, te)

		cred := Credential{
			AccessToken:  "A1",
			RefreshToken: "R1",
			ExpiresAt:    time.Now().Add(time.Hour),
		}

		got, refreshed, err := mgr.Ensure(context.Background(), cred)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if refreshed {
			t.Error("fresh credential should not be refreshed")
		}
		if got != cred {
			t.Errorf("expected credential unchanged, got %+v", got)
		}
		if te.hits.Load() != 0 {
			t.Errorf("expected zero token endpoint calls, got %d", te.hits.Load())
		}
	})

	t.Run("Missing Refresh Token", func(t *testing.T) {
		te := &tokenEndpoint{}
		mgr, _ := newTestManager(t, te)

		_, _, err := mgr.Ensure(context.Background(), Credential{AccessToken: "A1"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if te.hits.Load() != 0 {
			t.Errorf("expected zero token endpoint calls, got %d", te.hits.Load())
		}
	})

	t.Run("Stale Token Refreshes Once", func(t *testing.T) {
		te := &tokenEndpoint{
			body: `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`,
		}
		mgr, _ := newTestManager(t, te)

		cred := Credential{
			AccessToken:  "A1",
			RefreshToken: "R1",
			ExpiresAt:    time.Now().Add(-time.Second),
		}

		before := time.Now()
		got, refreshed, err := mgr.Ensure(context.Background(), cred)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !refreshed {
			t.Error("stale credential should report refreshed")
		}
		if got.AccessToken != "A2" {
			t.Errorf("expected access token A2, got %s", got.AccessToken)
		}
		if got.RefreshToken != "R1" {
			t.Errorf("refresh token should be unchanged when response omits one, got %s", got.RefreshToken)
		}

		wantExpiry := before.Add(time.Hour)
		if got.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || got.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
			t.Errorf("expected expiry near %v, got %v", wantExpiry, got.ExpiresAt)
		}

		if te.hits.Load() != 1 {
			t.Errorf("expected exactly one refresh exchange, got %d", te.hits.Load())
		}

		te.lastReq.Lock()
		defer te.lastReq.Unlock()
		if te.lastReq.grantType != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %s", te.lastReq.grantType)
		}
		if te.lastReq.refresh != "R1" {
			t.Errorf("expected refresh token R1 to be sent, got %s", te.lastReq.refresh)
		}
		if !te.lastReq.basicAuth {
			t.Error("expected client credentials via HTTP basic auth")
		}
	})

	t.Run("Unset Expiry Refreshes", func(t *testing.T) {
		te := &tokenEndpoint{
			body: `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`,
		}
		mgr, _ := newTestManager(t, te)

		cred := Credential{AccessToken: "A1", RefreshToken: "R1"}

		got, refreshed, err := mgr.Ensure(context.Background(), cred)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !refreshed || got.AccessToken != "A2" {
			t.Errorf("expected refresh for unset expiry, got refreshed=%v token=%s", refreshed, got.AccessToken)
		}
		if te.hits.Load() != 1 {
			t.Errorf("expected exactly one refresh exchange, got %d", te.hits.Load())
		}
	})

	t.Run("Refresh Token Rotation", func(t *testing.T) {
		te := &tokenEndpoint{
			body: `{"access_token":"A2","token_type":"Bearer","refresh_token":"R2","expires_in":3600}`,
		}
		mgr, _ := newTestManager(t, te)

		cred := Credential{AccessToken: "A1", RefreshToken: "R1", ExpiresAt: time.Now().Add(-time.Minute)}

		got, _, err := mgr.Ensure(context.Background(), cred)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.RefreshToken != "R2" {
			t.Errorf("expected rotated refresh token R2, got %s", got.RefreshToken)
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		te := &tokenEndpoint{status: http.StatusBadRequest}
		mgr, _ := newTestManager(t, te)

		cred := Credential{AccessToken: "A1", RefreshToken: "R_revoked", ExpiresAt: time.Now().Add(-time.Minute)}

		_, _, err := mgr.Ensure(context.Background(), cred)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if te.hits.Load() != 1 {
			t.Errorf("expected exactly one attempt (no retries), got %d", te.hits.Load())
		}
	})

	t.Run("Concurrent Refreshes Coalesce", func(t *testing.T) {
		te := &tokenEndpoint{
			body:  `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`,
			delay: 100 * time.Millisecond,
		}
		mgr, _ := newTestManager(t, te)

		cred := Credential{AccessToken: "A1", RefreshToken: "R1", ExpiresAt: time.Now().Add(-time.Minute)}

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, _, err := mgr.Ensure(context.Background(), cred)
				if err != nil {
					t.Errorf("expected no error, got %v", err)
					return
				}
				if got.AccessToken != "A2" {
					t.Errorf("expected shared refresh result A2, got %s", got.AccessToken)
				}
			}()
		}
		wg.Wait()

		if te.hits.Load() != 1 {
			t.Errorf("expected concurrent callers to share one exchange, got %d", te.hits.Load())
		}
	})
}
