package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webplayer/internal/services"
	"github.com/desertthunder/webplayer/internal/sessions"
	"github.com/desertthunder/webplayer/internal/shared"
	"github.com/desertthunder/webplayer/web"
)

// AppOpts contains the dependencies for assembling the application router.
type AppOpts struct {
	Config  *shared.Config
	Manager *sessions.Manager
	Spotify *services.SpotifyClient
	Logger  *log.Logger
}

// NewApp assembles the full application router: auth flow, rate-limited API
// proxy, health check, and the embedded browser client.
func NewApp(opts AppOpts) *BasicRouter {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger))

	router.Handler(NewAuthHandler(opts.Manager, opts.Logger))

	proxy := Handler(NewProxyHandler(opts.Manager, opts.Spotify, opts.Logger))
	if opts.Config.Server.RateLimit > 0 {
		proxy = Wrap(proxy, RateLimit(opts.Config.Server.RateLimit, opts.Config.Server.RateBurst))
	}
	router.Handler(proxy)

	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	router.Handle(http.MethodGet, "/", http.FileServerFS(web.Assets))

	return router
}

// AppRoutes lists every route the assembled application serves.
func AppRoutes() []string {
	routes := []string{}
	routes = append(routes, (&AuthHandler{}).Routes()...)
	routes = append(routes, (&ProxyHandler{}).Routes()...)
	routes = append(routes, "GET /healthz", "GET /")
	return routes
}
