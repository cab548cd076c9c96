package sessions

import (
	"time"

	"golang.org/x/oauth2"
)

// ExpiryMargin is subtracted from the access-token lifetime when deciding
// staleness, so a token that would expire mid-flight is refreshed first.
const ExpiryMargin = 10 * time.Second

// Credential is the session credential for one browser session: the
// access/refresh token pair and the access-token expiry.
//
// The zero value is an unauthenticated credential.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticated reports whether the session ever completed a login.
//
// Only the refresh token matters here; an expired access token is still an
// authenticated session, it just needs a refresh.
func (c Credential) Authenticated() bool {
	return c.RefreshToken != ""
}

// Stale reports whether the access token must be refreshed before use.
//
// A credential is stale when the access token is missing, the expiry is
// unset, or the expiry falls within [ExpiryMargin] of now (inclusive).
func (c Credential) Stale(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return true
	}
	return !c.ExpiresAt.After(now.Add(ExpiryMargin))
}

// Clear resets the credential to the unauthenticated zero value.
//
// Clearing an already-empty credential is a no-op.
func (c *Credential) Clear() {
	*c = Credential{}
}

// FromToken converts an [oauth2.Token] into a Credential.
func FromToken(tok *oauth2.Token) Credential {
	return Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}

// Token converts the credential back into an [oauth2.Token].
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt,
	}
}
