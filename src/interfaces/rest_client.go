package interfaces

import "context"

// -----------------------------------------------------------------------------
// IRestClient defines the contract for authenticated REST calls against the
// backend API. Implementations attach the bearer token and perform a single
// 401 retry with a freshly fetched token before surfacing the error.
// -----------------------------------------------------------------------------

type IRestClient interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request against an API-relative path and decodes
	// the JSON response into out (ignored when out is nil).
	Get(ctx context.Context, path string, params map[string]string, out interface{}) error

	// -----------------------------------------------------------------------------

	// Post performs a POST request with a JSON body.
	Post(ctx context.Context, path string, body interface{}, out interface{}) error

	// -----------------------------------------------------------------------------

	// Delete performs a DELETE request.
	Delete(ctx context.Context, path string) error

	// -----------------------------------------------------------------------------

	// BaseURL returns the normalized API root, e.g. "http://host:8000/api".
	BaseURL() string
}
