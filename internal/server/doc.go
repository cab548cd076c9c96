// Package server provides HTTP routing, middleware, the OAuth flow, and the API proxy.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; handlers register
// method-prefixed patterns ("GET /api/search") and read wildcards with [http.Request.PathValue].
//
// # Auth Flow
//
// [AuthHandler] implements the authorization-code flow against the provider's
// accounts service: /login redirects with a CSRF state cookie, /callback
// exchanges the code and writes the three credential cookies, /logout clears
// them, and /token serves the playback widget's token callback.
//
// The credential itself never lives on the server. Each request carries it in
// cookies, the handlers unmarshal it into a [sessions.Credential], and any
// refresh performed during the request is written back onto the response
// before the body.
//
// # Provider Proxy
//
// [ProxyHandler] exposes one endpoint per supported upstream capability.
// Each request resolves a valid token through [sessions.Manager.Ensure],
// issues exactly one upstream call, and relays the upstream status and JSON
// body verbatim. Credential failures become an opaque 401 and no upstream
// call happens. An empty search query short-circuits to 400 before any
// credential or network work.
//
// # Static Client
//
// The embedded browser client (web package) is served at the root; it hosts
// the playback widget and talks back exclusively through these endpoints.
package server
