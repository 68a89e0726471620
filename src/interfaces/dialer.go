package interfaces

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// IStreamConn abstracts one websocket connection. Satisfied by
// *websocket.Conn from gorilla; tests substitute an in-memory fake.
// -----------------------------------------------------------------------------

type IStreamConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	SetPingHandler(h func(appData string) error)
}

// -----------------------------------------------------------------------------

// IStreamDialer opens a websocket connection to the given URL.
type IStreamDialer interface {
	Dial(ctx context.Context, url string) (IStreamConn, error)
}
