// Package auth owns the bearer token that gates every authorized call.
package auth

import (
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
)

// tokenKey is the single fixed key the token lives under in the Store.
const tokenKey = "token"

// Gateway holds the current token in memory, synchronized with the durable
// Store. There is no refresh or rotation: an expired token is cleared and the
// user logs in again.
type Gateway struct {
	mu    sync.Mutex
	store *Store
	token string
}

// NewGateway restores the token from storage. An absent value or a literal
// "null" sentinel (left behind by earlier web clients serializing a missing
// token) counts as not logged in.
func NewGateway(store *Store) (*Gateway, error) {
	value, ok, err := store.Get(tokenKey)
	if err != nil {
		return nil, fmt.Errorf("restore token: %w", err)
	}
	g := &Gateway{store: store}
	if ok && value != "" && value != "null" {
		g.token = value
	}
	return g, nil
}

// SetToken persists the token and makes it available for authorization.
func (g *Gateway) SetToken(value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Set(tokenKey, value); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	g.token = value
	return nil
}

// ClearToken removes the token from memory and storage.
func (g *Gateway) ClearToken() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	if err := g.store.Remove(tokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is currently held.
func (g *Gateway) IsAuthenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token != ""
}

// Authorize attaches the bearer credential to an outgoing request when a
// token is present; otherwise the request goes out unauthorized.
func (g *Gateway) Authorize(req *resty.Request) {
	g.mu.Lock()
	token := g.token
	g.mu.Unlock()
	if token != "" {
		req.SetAuthToken(token)
	}
}

// Invalidate drops the token after a response signalled that the credential
// expired. The storage write is best effort: the in-memory token is gone
// either way.
func (g *Gateway) Invalidate() {
	_ = g.ClearToken()
}
