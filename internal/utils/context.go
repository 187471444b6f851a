// Package utils provides shared utility functions and constants
package utils

const (
	// ContextKeyCreds is the echo context key holding *services.Credentials.
	ContextKeyCreds = "creds"

	// CookieName is the session cookie carrying sealed storage credentials.
	CookieName = "IronSeal"

	// CSRFCookieName and CSRFHeader form the double-submit pair required
	// on unsafe requests made with a session cookie.
	CSRFCookieName = "csrf"
	CSRFHeader     = "X-CSRF-Token"
)
