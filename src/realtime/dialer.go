package realtime

import (
	"context"

	"github.com/gorilla/websocket"

	"monitor-observer/src/interfaces"
)

// -----------------------------------------------------------------------------

// GorillaDialer is the production IStreamDialer backed by gorilla/websocket.
type GorillaDialer struct{}

// -----------------------------------------------------------------------------

func (GorillaDialer) Dial(ctx context.Context, url string) (interfaces.IStreamConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}
