// Package ghostfolio is a client of the Ghostfolio REST API, implementing
// sidekick.Ledger.
package ghostfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/etnz/sidekick"
	"github.com/rs/zerolog"
)

// Client talks to one Ghostfolio instance. It is safe for concurrent use.
type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
	cache       sidekick.Cache
	log         zerolog.Logger

	mu        sync.Mutex
	authToken string
}

// New returns a client of the instance at baseURL, authenticating with the
// security token of a Ghostfolio user. GET responses are cached in cache.
func New(baseURL, accessToken string, cache sidekick.Cache, log zerolog.Logger) *Client {
	if cache == nil {
		cache = sidekick.NoCache{}
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		http:        &http.Client{Timeout: time.Minute},
		cache:       cache,
		log:         log.With().Str("component", "ghostfolio").Logger(),
	}
}

// WithHTTPClient returns c using h for every request.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// token returns the bearer token, authenticating first if needed.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authToken != "" {
		return c.authToken, nil
	}
	body, err := json.Marshal(map[string]string{"accessToken": c.accessToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/anonymous", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot authenticate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("cannot authenticate: %s", resp.Status)
	}
	var auth struct {
		AuthToken string `json:"authToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("cannot read authentication token: %w", err)
	}
	c.authToken = auth.AuthToken
	return c.authToken, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.authToken = ""
	c.mu.Unlock()
}

// do sends an authenticated request. A rejected token is renewed once.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, nil, err
		}
	}
	for attempt := 0; ; attempt++ {
		token, err := c.token(ctx)
		if err != nil {
			return 0, nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return 0, nil, err
		}
		content, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.dropToken()
			continue
		}
		c.log.Trace().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request")
		return resp.StatusCode, content, nil
	}
}

// get unmarshals the JSON at path into out, through the cache.
func (c *Client) get(ctx context.Context, path string, expiry sidekick.Expiry, out any) error {
	key := "GET " + path
	if v, ok := c.cache.Get(key); ok {
		return json.Unmarshal(v.([]byte), out)
	}
	status, content, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, sidekick.ErrNotFound)
	case status/100 != 2:
		return fmt.Errorf("cannot GET %s: %d %s", path, status, http.StatusText(status))
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	c.cache.Set(key, content, expiry)
	return nil
}

// send writes body to path. Rejected writes wrap sidekick.ErrRemoteOperation.
func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	status, content, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return content, fmt.Errorf("%s %s: %d %s: %w", method, path, status, strings.TrimSpace(string(content)), sidekick.ErrRemoteOperation)
	}
	return content, nil
}

// invalidate drops the cached responses of paths.
func (c *Client) invalidate(paths ...string) {
	for _, p := range paths {
		c.cache.Set("GET "+p, nil, sidekick.ExpiryNone)
	}
}
