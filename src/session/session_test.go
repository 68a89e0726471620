package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"monitor-observer/src/helpers"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------

func newTestSession() *Manager {
	return NewManager(logger.NewLogger("Session"))
}

// -----------------------------------------------------------------------------

func TestTokenWithoutSession(t *testing.T) {
	m := newTestSession()

	_, err := m.Token(context.Background())
	var authErr *helpers.AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthRequiredError", err)
	}
}

// -----------------------------------------------------------------------------

func TestTokenAfterSetSession(t *testing.T) {
	m := newTestSession()
	m.SetSession(&models.MSession{AccessToken: "tok", UserID: "u1"})

	token, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "tok" {
		t.Fatalf("token = %q", token)
	}
}

// -----------------------------------------------------------------------------

func TestExpiredSessionIsInvalid(t *testing.T) {
	m := newTestSession()
	m.SetSession(&models.MSession{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})

	_, err := m.Token(context.Background())
	var authErr *helpers.AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthRequiredError for expired session", err)
	}
}

// -----------------------------------------------------------------------------

// Token calls issued during a restore wait for its completion.
func TestTokenWaitsForRestore(t *testing.T) {
	m := newTestSession()
	m.BeginRestore()

	done := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		token, err := m.Token(ctx)
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- token
	}()

	time.Sleep(50 * time.Millisecond)
	m.CompleteRestore(&models.MSession{AccessToken: "restored", UserID: "u1"})

	select {
	case got := <-done:
		if got != "restored" {
			t.Fatalf("token = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Token never returned")
	}
}

// -----------------------------------------------------------------------------

// A bounded Token call gives up when the restore never finishes.
func TestTokenRestoreTimeout(t *testing.T) {
	m := newTestSession()
	m.BeginRestore()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := m.Token(ctx)
	var authErr *helpers.AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthRequiredError on restore timeout", err)
	}
}

// -----------------------------------------------------------------------------

func TestRestoreWithNothingFound(t *testing.T) {
	m := newTestSession()
	m.BeginRestore()

	events := 0
	m.OnAuthStateChange(func(event string, _ *models.MSession) { events++ })

	m.CompleteRestore(nil)

	if events != 0 {
		t.Fatalf("auth events = %d for an empty restore, want 0", events)
	}
	if _, err := m.Token(context.Background()); err == nil {
		t.Fatalf("Token succeeded with no session")
	}
}

// -----------------------------------------------------------------------------

func TestAuthStateTransitions(t *testing.T) {
	m := newTestSession()

	var events []string
	m.OnAuthStateChange(func(event string, _ *models.MSession) {
		events = append(events, event)
	})

	m.SetSession(&models.MSession{AccessToken: "tok"})
	m.SignOut()

	want := []string{models.AuthSignedIn, models.AuthSignedOut}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %v, want %v", events, want)
	}
	if m.GetSession() != nil {
		t.Fatalf("session survives sign-out")
	}
}

// -----------------------------------------------------------------------------

func TestUnsubscribeStopsNotifications(t *testing.T) {
	m := newTestSession()

	calls := 0
	unsub := m.OnAuthStateChange(func(string, *models.MSession) { calls++ })

	m.SetSession(&models.MSession{AccessToken: "a"})
	unsub()
	m.SetSession(&models.MSession{AccessToken: "b"})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
