// Package services implements the upstream Spotify Web API client.
//
// # Verbatim relay
//
// The proxy layer promises to relay upstream status codes and JSON bodies
// unchanged, so [SpotifyClient] deliberately does not model API resources.
// Every call returns an [UpstreamResponse] carrying the raw status and body,
// and the handler decides how to write it out.
//
// Endpoints follow https://developer.spotify.com/documentation/web-api/reference/
//
// # Error Handling
//
// A non-2xx upstream status is not a Go error; it is a valid relay result.
// Errors are reserved for transport failures (unreachable host, canceled
// context, unreadable body), which the proxy collapses to a generic 500.
package services
