package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webplayer/internal/services"
	"github.com/desertthunder/webplayer/internal/sessions"
	"github.com/desertthunder/webplayer/internal/shared"
)

// ProxyHandler forwards browser requests to the upstream Web API.
//
// Every endpoint obtains a valid token from the credential manager, issues
// exactly one upstream request, and relays the result. No caching, no
// retries, no batching.
type ProxyHandler struct {
	manager *sessions.Manager
	spotify *services.SpotifyClient
	logger  *log.Logger
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(manager *sessions.Manager, spotify *services.SpotifyClient, logger *log.Logger) *ProxyHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ProxyHandler{
		manager: manager,
		spotify: spotify,
		logger:  shared.WithLogger(logger, "component", "proxy"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ProxyHandler) Routes() []string {
	return []string{
		"GET /api/me",
		"GET /api/playlists",
		"GET /api/playlist/{id}",
		"GET /api/library/albums",
		"GET /api/search",
		"POST /api/transfer",
		"PUT /api/play",
		"PUT /api/pause",
		"POST /api/next",
		"POST /api/previous",
	}
}

// ServeHTTP dispatches to the matched proxy route.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /api/me":
		h.forward(w, r, "failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
			return h.spotify.Me(ctx, token)
		})
	case "GET /api/playlists":
		h.forward(w, r, "failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
			return h.spotify.Playlists(ctx, token)
		})
	case "GET /api/playlist/{id}":
		id := r.PathValue("id")
		h.forward(w, r, "failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
			return h.spotify.Playlist(ctx, token, id)
		})
	case "GET /api/library/albums":
		h.forward(w, r, "failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
			return h.spotify.SavedAlbums(ctx, token)
		})
	case "GET /api/search":
		h.search(w, r)
	case "POST /api/transfer":
		h.transfer(w, r)
	case "PUT /api/play":
		h.play(w, r)
	case "PUT /api/pause":
		h.act(w, r, "pause_failed", h.spotify.Pause)
	case "POST /api/next":
		h.act(w, r, "next_failed", h.spotify.Next)
	case "POST /api/previous":
		h.act(w, r, "previous_failed", h.spotify.Previous)
	default:
		http.NotFound(w, r)
	}
}

// authenticate resolves a valid access token for the request's session.
//
// On failure it writes the 401 itself and reports false; no upstream call is
// made. When a refresh happened the rotated cookies are written before any
// body, so the browser always stores the newest credential.
func (h *ProxyHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	cred, refreshed, err := h.manager.Ensure(r.Context(), readCredential(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return "", false
	}

	if refreshed {
		writeCredential(w, r, cred)
	}

	return cred.AccessToken, true
}

type upstreamCall func(ctx context.Context, token string) (*services.UpstreamResponse, error)

// forward relays a read endpoint: status and JSON body verbatim.
func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request, marker string, call upstreamCall) {
	token, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := call(r.Context(), token)
	if err != nil {
		h.logger.Error("upstream call failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": marker})
		return
	}

	h.relay(w, resp, marker)
}

// act relays a control endpoint: {ok:true} on upstream success, relayed error otherwise.
func (h *ProxyHandler) act(w http.ResponseWriter, r *http.Request, marker string, call upstreamCall) {
	token, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := call(r.Context(), token)
	if err != nil {
		h.logger.Error("upstream call failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": marker})
		return
	}

	if !resp.OK() {
		h.relay(w, resp, marker)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// relay writes the upstream status and body unchanged when a JSON body is
// present, else collapses to a generic failure marker.
func (h *ProxyHandler) relay(w http.ResponseWriter, resp *services.UpstreamResponse, marker string) {
	if resp.IsJSON && len(resp.Body) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
		return
	}

	if resp.OK() {
		// success with no JSON payload still succeeds for the caller
		writeJSON(w, resp.StatusCode, map[string]bool{"ok": true})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": marker})
}

// search validates the query before any credential or network work.
func (h *ProxyHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_query"})
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "track"
	}

	h.forward(w, r, "search_failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
		return h.spotify.Search(ctx, token, query, kind)
	})
}

// transfer moves playback to the device named in the request body.
func (h *ProxyHandler) transfer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_device_id"})
		return
	}

	h.act(w, r, "transfer_failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
		return h.spotify.TransferPlayback(ctx, token, body.DeviceID)
	})
}

// play starts playback with the optional uris/context/offset from the body.
func (h *ProxyHandler) play(w http.ResponseWriter, r *http.Request) {
	var req services.PlayRequest
	if r.Body != nil {
		// an empty or absent body resumes the current context
		json.NewDecoder(r.Body).Decode(&req)
	}

	h.act(w, r, "play_failed", func(ctx context.Context, token string) (*services.UpstreamResponse, error) {
		return h.spotify.Play(ctx, token, &req)
	})
}
