package interfaces

import (
	"context"

	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// ISessionProvider is the consumed contract of the external auth collaborator.
// Token acquisition itself (login flows, refresh protocols) lives outside
// this module; we only need the current session, a token getter that waits
// out an in-progress restore, and auth-state change notifications.
// -----------------------------------------------------------------------------

type ISessionProvider interface {

	// -----------------------------------------------------------------------------

	// GetSession returns the current session, or nil when signed out.
	GetSession() *models.MSession

	// -----------------------------------------------------------------------------

	// Token returns a usable access token. If a session restore is in
	// progress it waits for it, bounded by the context deadline. Returns
	// an AuthRequired error when no session materializes in time.
	Token(ctx context.Context) (string, error)

	// -----------------------------------------------------------------------------

	// OnAuthStateChange registers a callback invoked with AuthSignedIn /
	// AuthSignedOut transitions. The returned function unsubscribes.
	OnAuthStateChange(fn func(event string, session *models.MSession)) func()

	// -----------------------------------------------------------------------------

	// SignOut clears the session and notifies subscribers.
	SignOut() error
}
