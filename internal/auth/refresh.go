package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"racetime/internal/store"
)

// refreshBuffer refreshes tokens this long before they expire
const refreshBuffer = 60 * time.Second

// TokenStore persists Strava tokens
type TokenStore interface {
	GetAuth(ctx context.Context) (*store.Auth, error)
	SaveAuth(ctx context.Context, auth *store.Auth) error
	UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenSource wraps oauth2.TokenSource with persistence
// It automatically refreshes tokens and calls onRefresh when a new token is obtained
type TokenSource struct {
	ctx       context.Context
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewTokenSource creates a new TokenSource that will refresh tokens as needed
// and call onRefresh to persist new tokens. ctx is used for refresh requests.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		ctx:       ctx,
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
	}
}

// StoredTokenSource loads tokens from s and writes refreshed tokens back to it.
// Returns store.ErrNoAuth when the user has not logged in.
func StoredTokenSource(ctx context.Context, cfg *oauth2.Config, s TokenStore) (*TokenSource, error) {
	a, err := s.GetAuth(ctx)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       a.ExpiresAt,
	}
	return NewTokenSource(ctx, cfg, token, func(t *oauth2.Token) error {
		if err := s.UpdateTokens(ctx, t.AccessToken, t.RefreshToken, t.Expiry); err != nil {
			return fmt.Errorf("saving refreshed token: %w", err)
		}
		return nil
	}), nil
}

// SaveResult stores the tokens from a completed login
func SaveResult(ctx context.Context, s TokenStore, res *AuthResult) error {
	return s.SaveAuth(ctx, &store.Auth{
		AthleteID:    res.AthleteID,
		AccessToken:  res.Token.AccessToken,
		RefreshToken: res.Token.RefreshToken,
		ExpiresAt:    res.Token.Expiry,
	})
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}

	// Force a refresh even though oauth2 would still consider the token valid
	expired := *ts.token
	expired.Expiry = time.Now().Add(-time.Second)
	newToken, err := ts.config.TokenSource(ts.ctx, &expired).Token()
	if err != nil {
		return nil, err
	}

	// Persist the new token if callback is set
	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, err
		}
	}

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or will expire within the buffer
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return time.Until(ts.token.Expiry) <= refreshBuffer
}
