// Package sessions implements the credential lifecycle for one browser session.
//
// # Session Credential
//
// [Credential] is a pure value type holding the access/refresh token pair and
// the access-token expiry. The server keeps no credential state of its own:
// the HTTP layer marshals a Credential out of request cookies, passes it into
// the [Manager], and writes any updated value back onto the response.
//
// # Manager
//
// [Manager] owns the three token operations:
//
//   - [Manager.Exchange] trades an authorization code for an initial credential
//   - [Manager.Ensure] lazily refreshes a stale credential before use
//   - [Manager.AuthURL] builds the authorization redirect
//
// Staleness is checked at point of use with a 10 second safety margin so a
// token cannot expire mid-flight to the upstream API. Refresh failures are
// never retried; callers surface them as 401 and the browser restarts the
// login flow.
//
// # Concurrent refreshes
//
// Handlers run concurrently, so two requests can observe the same stale
// credential. Refresh exchanges are coalesced per refresh token through
// [singleflight.Group]: concurrent callers share one exchange and one result.
package sessions
