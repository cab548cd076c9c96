package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webplayer/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// scopes is the fixed scope set registered for the player.
var scopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// Manager performs the token exchanges for session credentials.
//
// It holds no per-session state; every operation takes a [Credential] in and
// hands a (possibly updated) one back.
type Manager struct {
	config *oauth2.Config
	logger *log.Logger
	now    func() time.Time
	group  singleflight.Group
}

// ManagerOpts contains configuration options for creating a Manager.
//
// AuthURL and TokenURL default to the Spotify accounts endpoints and exist so
// tests can point the manager at a local server.
type ManagerOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Logger       *log.Logger
	Now          func() time.Time
}

// NewManager creates a Manager from the registered client credentials.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, shared.ErrMissingCredentials
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  opts.AuthURL,
			TokenURL: opts.TokenURL,
			// Spotify wants the client credentials as HTTP Basic auth
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &Manager{
		config: config,
		logger: shared.WithLogger(opts.Logger, "component", "sessions"),
		now:    opts.Now,
	}, nil
}

// AuthURL builds the authorization redirect URL for the given state token.
//
// show_dialog forces the consent screen so switching accounts stays possible.
func (m *Manager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a fresh session credential.
//
// Failure here is terminal for the login attempt; the callback handler
// surfaces it to the user and nothing is retried.
func (m *Manager) Exchange(ctx context.Context, code string) (Credential, error) {
	tok, err := m.config.Exchange(ctx, code)
	if err != nil {
		m.logger.Error("authorization code exchange rejected", "error", err)
		return Credential{}, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	return FromToken(tok), nil
}

// Ensure returns a credential whose access token is valid for at least
// [ExpiryMargin], refreshing it if necessary.
//
// The boolean reports whether a refresh happened, so the HTTP layer knows to
// rewrite the session cookies. Returns [shared.ErrNotAuthenticated] when the
// session never logged in and [shared.ErrRefreshFailed] when the exchange is
// rejected or unreachable; neither is retried here.
func (m *Manager) Ensure(ctx context.Context, cred Credential) (Credential, bool, error) {
	if !cred.Authenticated() {
		return cred, false, shared.ErrNotAuthenticated
	}

	if !cred.Stale(m.now()) {
		return cred, false, nil
	}

	// Coalesce concurrent refreshes of the same session: all callers that
	// observed the stale token share one exchange and one result.
	v, err, _ := m.group.Do(cred.RefreshToken, func() (any, error) {
		return m.refresh(ctx, cred)
	})
	if err != nil {
		return cred, false, err
	}

	return v.(Credential), true, nil
}

// refresh performs a single refresh-token grant against the token endpoint.
func (m *Manager) refresh(ctx context.Context, cred Credential) (Credential, error) {
	src := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		m.logger.Error("refresh exchange failed", "error", err)
		return Credential{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	next := FromToken(tok)
	// oauth2 carries the previous refresh token forward when the response
	// omits one, which is exactly the rotation rule: replace on rotation,
	// keep otherwise.
	if next.RefreshToken == "" {
		next.RefreshToken = cred.RefreshToken
	}

	m.logger.Debug("access token refreshed",
		"rotated", next.RefreshToken != cred.RefreshToken,
		"expires_at", next.ExpiresAt)

	return next, nil
}
