package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webplayer/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// UpstreamResponse is a raw upstream API response: the relayed status code
// and body, plus whether the body parses as JSON.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
	IsJSON     bool
}

// OK reports whether the upstream responded with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// PlayRequest is the playback start request forwarded from the browser.
//
// All fields are optional; an empty request resumes the current context.
type PlayRequest struct {
	URIs       []string        `json:"uris,omitempty"`
	ContextURI string          `json:"context_uri,omitempty"`
	Offset     json.RawMessage `json:"offset,omitempty"`
}

// SpotifyClient performs authenticated requests against the Spotify Web API.
//
// The bearer token is supplied per call; the client itself is stateless and
// safe for concurrent use.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// SpotifyClientOpts contains configuration options for creating a SpotifyClient.
type SpotifyClientOpts struct {
	BaseURL    string // defaults to the public Web API; override in tests
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewSpotifyClient creates a new Web API client.
func NewSpotifyClient(opts SpotifyClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// do performs a single authenticated request and captures the raw response.
func (c *SpotifyClient) do(ctx context.Context, method, token, endpoint string, body any) (*UpstreamResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("upstream call", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	return &UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       raw,
		IsJSON:     json.Valid(raw),
	}, nil
}

// Me retrieves the current user's profile.
func (c *SpotifyClient) Me(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, token, "/me", nil)
}

// Playlists retrieves the current user's playlists.
func (c *SpotifyClient) Playlists(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, token, "/me/playlists?limit=50", nil)
}

// Playlist retrieves a single playlist by ID.
func (c *SpotifyClient) Playlist(ctx context.Context, token, playlistID string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, token, "/playlists/"+url.PathEscape(playlistID), nil)
}

// SavedAlbums retrieves the user's saved albums.
func (c *SpotifyClient) SavedAlbums(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, token, "/me/albums?limit=50", nil)
}

// Search queries the catalog. The type defaults to "track" upstream of here;
// callers validate that the query is non-empty before any network call.
func (c *SpotifyClient) Search(ctx context.Context, token, query, kind string) (*UpstreamResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", "20")
	return c.do(ctx, http.MethodGet, token, "/search?"+params.Encode(), nil)
}

// TransferPlayback moves playback to the given device without starting it.
func (c *SpotifyClient) TransferPlayback(ctx context.Context, token, deviceID string) (*UpstreamResponse, error) {
	body := map[string]any{"device_ids": []string{deviceID}, "play": false}
	return c.do(ctx, http.MethodPut, token, "/me/player", body)
}

// Play starts or resumes playback.
func (c *SpotifyClient) Play(ctx context.Context, token string, req *PlayRequest) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPut, token, "/me/player/play", req)
}

// Pause pauses playback.
func (c *SpotifyClient) Pause(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPut, token, "/me/player/pause", struct{}{})
}

// Next skips to the next track.
func (c *SpotifyClient) Next(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, token, "/me/player/next", nil)
}

// Previous skips to the previous track.
func (c *SpotifyClient) Previous(ctx context.Context, token string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, token, "/me/player/previous", nil)
}
