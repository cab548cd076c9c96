package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/webplayer/internal/sessions"
)

// Cookie names carrying the session credential. The server keeps no
// credential state of its own; these three cookies are the whole session.
const (
	cookieAccessToken  = "access_token"
	cookieRefreshToken = "refresh_token"
	cookieExpiresAt    = "expires_at"
	cookieOAuthState   = "oauth_state"
)

// secureRequest reports whether the request arrived over TLS, directly or
// behind a proxy that set X-Forwarded-Proto.
func secureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// sessionCookie builds a session-lived credential cookie. No Max-Age: the
// credential dies with the browser session.
func sessionCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secureRequest(r),
	}
}

// readCredential unmarshals the session credential from request cookies.
//
// Missing or malformed cookies degrade to the zero value for that field;
// staleness checks treat an unparseable expiry as expired.
func readCredential(r *http.Request) sessions.Credential {
	var cred sessions.Credential

	if c, err := r.Cookie(cookieAccessToken); err == nil {
		cred.AccessToken = c.Value
	}
	if c, err := r.Cookie(cookieRefreshToken); err == nil {
		cred.RefreshToken = c.Value
	}
	if c, err := r.Cookie(cookieExpiresAt); err == nil {
		if ms, err := strconv.ParseInt(c.Value, 10, 64); err == nil && ms > 0 {
			cred.ExpiresAt = time.UnixMilli(ms)
		}
	}

	return cred
}

// writeCredential marshals the credential onto the response as cookies.
//
// Access token and expiry always travel together so the stored expiry always
// reflects the most recently issued token.
func writeCredential(w http.ResponseWriter, r *http.Request, cred sessions.Credential) {
	http.SetCookie(w, sessionCookie(r, cookieAccessToken, cred.AccessToken))
	http.SetCookie(w, sessionCookie(r, cookieRefreshToken, cred.RefreshToken))
	http.SetCookie(w, sessionCookie(r, cookieExpiresAt, strconv.FormatInt(cred.ExpiresAt.UnixMilli(), 10)))
}

// clearCredential expires all three credential cookies. Idempotent.
func clearCredential(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{cookieAccessToken, cookieRefreshToken, cookieExpiresAt} {
		c := sessionCookie(r, name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
