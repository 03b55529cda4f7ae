package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/oauth2"
)

// CredentialProvider yields a bearer token on demand.
//
// Implementations refresh or re-authenticate transparently and never return an
// empty token without an error. Invalidate discards any cached token so the
// next Token call must produce a fresh one.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// TokenSaver persists a refreshed token (e.g. back to config.toml).
type TokenSaver func(token *oauth2.Token) error

// OAuthCredentials is a CredentialProvider backed by an [oauth2.Config] and a
// cached token. Refreshes happen through the config's TokenSource; refreshed
// tokens are handed to the saver so they survive across runs.
type OAuthCredentials struct {
	mu     sync.Mutex
	config *oauth2.Config
	token  *oauth2.Token
	source oauth2.TokenSource
	save   TokenSaver
}

// NewOAuthCredentials creates a credential provider from an OAuth2 config and a
// previously issued token. The saver may be nil.
func NewOAuthCredentials(config *oauth2.Config, token *oauth2.Token, save TokenSaver) *OAuthCredentials {
	return &OAuthCredentials{config: config, token: token, save: save}
}

// Token returns a valid access token, refreshing if the cached one has expired.
func (c *OAuthCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return "", fmt.Errorf("%w: run 'amx auth' first", shared.ErrNotAuthenticated)
	}

	if c.source == nil {
		c.source = c.config.TokenSource(ctx, c.token)
	}

	token, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.AccessToken != c.token.AccessToken {
		c.token = token
		if c.save != nil {
			if err := c.save(token); err != nil {
				return "", fmt.Errorf("failed to persist refreshed token: %w", err)
			}
		}
	}

	return token.AccessToken, nil
}

// Invalidate discards the cached token and its source.
func (c *OAuthCredentials) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
	c.source = nil
}

// SetToken replaces the cached token, e.g. after a fresh authorization flow.
func (c *OAuthCredentials) SetToken(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.source = nil
}

// StaticCredentials is a CredentialProvider over a fixed token string. Used in tests
// and for short-lived tokens supplied out of band.
type StaticCredentials struct {
	mu          sync.Mutex
	accessToken string
}

// NewStaticCredentials wraps a raw access token.
func NewStaticCredentials(token string) *StaticCredentials {
	return &StaticCredentials{accessToken: token}
}

func (c *StaticCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	return c.accessToken, nil
}

func (c *StaticCredentials) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
}
