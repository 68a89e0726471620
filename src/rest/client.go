package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"monitor-observer/src/helpers"
	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// Client performs authenticated REST calls against the backend API. Every
// request carries "Authorization: Bearer <token>"; a 401 response is retried
// exactly once with a freshly fetched token before the error is surfaced.
// -----------------------------------------------------------------------------

type Client struct {
	Config  *models.MConfig
	Session interfaces.ISessionProvider
	Logger  *logger.Logger

	baseURL string
	client  *http.Client
}

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MConfig, sess interfaces.ISessionProvider, log *logger.Logger) *Client {
	c := &Client{
		Config:  cfg,
		Session: sess,
		Logger:  log,
		baseURL: NormalizeBaseURL(cfg.API.BaseURL),
	}
	c.client = c.createClient()
	return c
}

// -----------------------------------------------------------------------------

func (c *Client) createClient() *http.Client {
	transport := &http.Transport{}

	if c.Config.API.ProxyURL != "" {
		if proxyURL, err := url.Parse(c.Config.API.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(c.Config.API.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// NormalizeBaseURL produces a consistent API root: scheme defaulted to http,
// trailing slashes removed, "/api" appended when missing.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}

// -----------------------------------------------------------------------------

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// -----------------------------------------------------------------------------

// Get performs a GET request against an API-relative path.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// -----------------------------------------------------------------------------

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// -----------------------------------------------------------------------------

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// -----------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, params, body, token)
	if err != nil {
		return err
	}

	// One-shot retry on 401 with a freshly fetched token. The session
	// provider may have refreshed behind our back; a second 401 is final.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.Logger.Warning("%s %s returned 401, retrying with fresh token", method, path)

		token, err = c.token(ctx)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, params, body, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return helpers.NewRequestError(
			fmt.Sprintf("%s %s failed", method, path), resp.StatusCode, nil)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return helpers.NewRequestError(
			fmt.Sprintf("%s %s: invalid response body", method, path), resp.StatusCode, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// token fetches the bearer token, waiting out an in-progress session restore
// up to the configured bound.
func (c *Client) token(ctx context.Context) (string, error) {
	wait := time.Duration(c.Config.API.TokenWaitSeconds) * time.Second
	tokenCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return c.Session.Token(tokenCtx)
}

// -----------------------------------------------------------------------------

func (c *Client) send(ctx context.Context, method, path string, params map[string]string, body interface{}, token string) (*http.Response, error) {
	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, helpers.NewRequestError("invalid request path", 0, err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqURL.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, helpers.NewRequestError("invalid request body", 0, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, helpers.NewRequestError("building request failed", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, helpers.NewRequestError(fmt.Sprintf("%s %s", method, path), 0, err)
	}
	return resp, nil
}
