package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webplayer/internal/sessions"
	"github.com/desertthunder/webplayer/internal/shared"
)

// AuthHandler serves the OAuth2 authorization-code flow endpoints and the
// token endpoint used by the playback widget.
//
// Implements the [Handler] interface for registration with a [Router].
type AuthHandler struct {
	manager *sessions.Manager
	logger  *log.Logger
}

// NewAuthHandler creates a new auth handler backed by the given credential manager.
func NewAuthHandler(manager *sessions.Manager, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthHandler{
		manager: manager,
		logger:  shared.WithLogger(logger, "component", "auth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"GET /login",
		"GET /callback",
		"GET /logout",
		"GET /token",
	}
}

// ServeHTTP dispatches to the matched auth route.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /login":
		h.login(w, r)
	case "GET /callback":
		h.callback(w, r)
	case "GET /logout":
		h.logout(w, r)
	case "GET /token":
		h.token(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login redirects the browser to the provider's authorization endpoint.
//
// A random state parameter rides along in a short-lived cookie for CSRF
// protection; the callback checks it before exchanging the code.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateState()
	http.SetCookie(w, sessionCookie(r, cookieOAuthState, state))
	http.Redirect(w, r, h.manager.AuthURL(state), http.StatusFound)
}

// callback exchanges the authorization code and establishes the session.
//
// Failure here is terminal for the login attempt: the browser is sent back
// to the app with an error marker and nothing is retried.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if c, err := r.Cookie(cookieOAuthState); err != nil || state == "" || c.Value != state {
		h.logger.Warn("callback state mismatch")
		http.Redirect(w, r, "/?error=state_mismatch", http.StatusFound)
		return
	}

	// the state cookie is single use
	expired := sessionCookie(r, cookieOAuthState, "")
	expired.MaxAge = -1
	http.SetCookie(w, expired)

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/?error=missing_code", http.StatusFound)
		return
	}

	cred, err := h.manager.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("authorization code exchange failed", "error", err)
		http.Redirect(w, r, "/?error=token_error", http.StatusFound)
		return
	}

	writeCredential(w, r, cred)
	http.Redirect(w, r, "/", http.StatusFound)
}

// logout clears the session credential unconditionally.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	clearCredential(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// token hands the playback widget a valid access token, refreshing first if needed.
func (h *AuthHandler) token(w http.ResponseWriter, r *http.Request) {
	cred, refreshed, err := h.manager.Ensure(r.Context(), readCredential(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if refreshed {
		writeCredential(w, r, cred)
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": cred.AccessToken})
}
