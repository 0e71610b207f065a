// Package client is a Go client for the shielded pool HTTP API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/whistle-protocol/shieldpool/api"
	"github.com/whistle-protocol/shieldpool/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries is the number of attempts of an idempotent request
	// whose connection fails.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second
	// DefaultBackoff is the pause between two attempts.
	DefaultBackoff = 500 * time.Millisecond

	maxLoggedBody = 512
)

// HTTPclient is the shielded pool API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
	backoff time.Duration
}

// Option configures an HTTPclient.
type Option func(*HTTPclient)

// WithRetries sets how many times a GET is attempted when the connection
// fails. POST requests change pool state and are always sent once.
func WithRetries(n int) Option {
	return func(c *HTTPclient) {
		c.retries = max(n, 1)
	}
}

// WithTimeout bounds every request, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPclient) {
		c.c.Timeout = d
		if tr, ok := c.c.Transport.(*http.Transport); ok {
			tr.ResponseHeaderTimeout = d
		}
	}
}

// WithBackoff sets the pause between two attempts of a request.
func WithBackoff(d time.Duration) Option {
	return func(c *HTTPclient) {
		c.backoff = d
	}
}

// New returns a client for the API served at host, once it answers to ping.
func New(host string, opts ...Option) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	if hostURL.Scheme != "http" && hostURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported API url %q", host)
	}
	tr := &http.Transport{
		IdleConnTimeout: DefaultTimeout,
		WriteBufferSize: 1 * 1024 * 1024, // 1 MiB
		ReadBufferSize:  1 * 1024 * 1024, // 1 MiB
	}
	c := &HTTPclient{
		c:       &http.Client{Transport: tr, Timeout: DefaultTimeout},
		host:    hostURL,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	log.Debugw("http client created", "host", hostURL.String(), "retries", c.retries, "timeout", c.c.Timeout.String())
	if err := c.Ping(); err != nil {
		return nil, err
	}
	return c, nil
}

// Ping checks the API answers.
func (c *HTTPclient) Ping() error {
	data, status, err := c.Request(HTTPGET, nil, nil, api.PingEndpoint)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return nil
}

// Request sends a raw request to the endpoint made of the urlPath segments
// and returns the response body and status code. A non nil jsonBody is sent
// as JSON. params holds query parameters as key, value pairs; a trailing key
// without value is ignored.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 1 {
		values := url.Values{}
		for i := 0; i+1 < len(params); i += 2 {
			values.Set(params[i], params[i+1])
		}
		u.RawQuery = values.Encode()
	}
	logged := body
	if len(logged) > maxLoggedBody {
		logged = logged[:maxLoggedBody]
	}
	log.Debugw("http client request", "type", method, "url", u.String(), "body", string(logged))

	attempts := 1
	if method == HTTPGET {
		attempts = c.retries
	}
	resp, err := c.send(method, u.String(), body, attempts)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// send performs the request up to attempts times while the connection fails.
func (c *HTTPclient) send(method, target string, body []byte, attempts int) (*http.Response, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		req, err := http.NewRequest(method, target, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
		}
		resp, err := c.c.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warnw("http request failed", "error", err.Error(), "attempt", i, "attempts", attempts)
		if i < attempts {
			time.Sleep(c.backoff)
		}
	}
	return nil, fmt.Errorf("http request failed after %d attempts: %w", attempts, lastErr)
}
