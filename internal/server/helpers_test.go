package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/webplayer/internal/services"
	"github.com/desertthunder/webplayer/internal/sessions"
	"github.com/desertthunder/webplayer/internal/shared"
)

// fixture wires a full application router against fake provider servers.
type fixture struct {
	router       *BasicRouter
	tokenHits    atomic.Int64
	upstreamHits atomic.Int64
	authBase     string
}

// fixtureOpts tweaks the fake provider behavior per test.
type fixtureOpts struct {
	tokenStatus int    // non-2xx rejects exchanges; defaults to 200
	tokenBody   string // token endpoint JSON; defaults to a plain refresh response
	upstream    http.HandlerFunc
	rateLimit   float64
	rateBurst   int
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	f := &fixture{}

	if opts.tokenBody == "" {
		opts.tokenBody = `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`
	}
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if opts.tokenStatus != 0 && opts.tokenStatus != http.StatusOK {
			w.WriteHeader(opts.tokenStatus)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Write([]byte(opts.tokenBody))
	}))
	t.Cleanup(tokenSrv.Close)
	f.authBase = tokenSrv.URL

	if opts.upstream == nil {
		opts.upstream = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}
	}
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.upstreamHits.Add(1)
		opts.upstream(w, r)
	}))
	t.Cleanup(upstreamSrv.Close)

	logger := shared.NewLogger(io.Discard)

	manager, err := sessions.NewManager(sessions.ManagerOpts{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://localhost:3000/callback",
		AuthURL:      tokenSrv.URL + "/authorize",
		TokenURL:     tokenSrv.URL + "/api/token",
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	spotify := services.NewSpotifyClient(services.SpotifyClientOpts{
		BaseURL: upstreamSrv.URL,
		Logger:  logger,
	})

	config := shared.DefaultConfig()
	config.Server.RateLimit = opts.rateLimit
	config.Server.RateBurst = opts.rateBurst

	f.router = NewApp(AppOpts{
		Config:  config,
		Manager: manager,
		Spotify: spotify,
		Logger:  logger,
	})

	return f
}

// addSession attaches credential cookies for an authenticated session.
func addSession(req *http.Request, access, refresh string, expiresAt time.Time) {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: cookieAccessToken, Value: access})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: refresh})
	}
	if !expiresAt.IsZero() {
		req.AddCookie(&http.Cookie{Name: cookieExpiresAt, Value: expiresAtCookieValue(expiresAt)})
	}
}

// cookieByName finds a response cookie, or nil.
func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
