package models

import "time"

// Auth state transition events emitted by the session provider.
const (
	AuthSignedIn  = "signed_in"
	AuthSignedOut = "signed_out"
)

// MSession is the authenticated session held by the session provider.
type MSession struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// -----------------------------------------------------------------------------

// Valid reports whether the session carries a usable, unexpired token.
func (s *MSession) Valid() bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}
