package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing client credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrExchangeFailed   = fmt.Errorf("authorization code exchange failed")
	ErrStateMismatch    = fmt.Errorf("state parameter mismatch")

	// API and proxy errors
	ErrAPIRequest   = fmt.Errorf("API request failed")
	ErrMissingQuery = fmt.Errorf("missing search query")
	ErrInvalidBody  = fmt.Errorf("invalid request body")
)
