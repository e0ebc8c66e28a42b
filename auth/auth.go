package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authorizer decorates outgoing requests with credentials.
type Authorizer interface {
	Authorize(ctx context.Context, r *http.Request) error
}

// None leaves requests untouched.
type None struct{}

func (None) Authorize(context.Context, *http.Request) error { return nil }

// New returns a ClientCred when conf is enabled, None otherwise.
func New(conf Conf) Authorizer {
	if !conf.Enabled() {
		return None{}
	}
	return NewClientCred(conf)
}

// ClientCred caches a client-credentials token and refreshes it when it
// expires.
type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: conf.toOauth2Config(),
	}
}

// GetToken returns the cached access token, fetching a new one when the
// current token is missing or expired.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token and retrieves a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

func (c *ClientCred) fetch(ctx context.Context) error {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// Authorize sets the Authorization header on r.
func (c *ClientCred) Authorize(ctx context.Context, r *http.Request) error {
	if _, err := c.GetToken(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.token.SetAuthHeader(r)
	c.mu.Unlock()
	return nil
}
