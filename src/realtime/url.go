package realtime

import (
	"fmt"
	"net/url"
	"strings"

	"monitor-observer/src/rest"
)

// -----------------------------------------------------------------------------

// DeriveStreamURL builds the websocket address from the REST base address:
// same host, scheme upgraded (http -> ws, https -> wss), any trailing "/api"
// segment stripped, "/ws" appended, token passed as a query parameter.
func DeriveStreamURL(base, token string) (string, error) {
	normalized := rest.NormalizeBaseURL(base)
	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("invalid base address %q: %w", base, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in base address", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/api")
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
