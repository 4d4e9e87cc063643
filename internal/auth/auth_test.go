package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"racetime/internal/store"
)

// tokenServer answers Strava-style token requests
func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			assert.Equal(t, "the-code", r.Form.Get("code"))
			w.Write([]byte(`{"token_type":"Bearer","access_token":"access-1","refresh_token":"refresh-1","expires_in":21600,"athlete":{"id":4242}}`))
		case "refresh_token":
			w.Write([]byte(`{"token_type":"Bearer","access_token":"access-2","refresh_token":"refresh-2","expires_in":21600}`))
		default:
			http.Error(w, "bad grant", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOAuthConfig(tokenURL, redirect string) *oauth2.Config {
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: redirect})
	cfg.Endpoint.TokenURL = tokenURL
	return cfg
}

func TestNewOAuthConfigDefaults(t *testing.T) {
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret"})
	assert.Equal(t, DefaultRedirectURL, cfg.RedirectURL)
	assert.Equal(t, AuthURL, cfg.Endpoint.AuthURL)
	assert.Equal(t, Scopes, cfg.Scopes)
}

func TestExtractAthleteID(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "x"}).WithExtra(map[string]interface{}{
		"athlete": map[string]interface{}{"id": float64(99)},
	})
	assert.Equal(t, int64(99), ExtractAthleteID(tok))
	assert.Equal(t, int64(0), ExtractAthleteID(&oauth2.Token{AccessToken: "x"}))
}

func TestAuthenticate(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	cfg := testOAuthConfig(srv.URL, "http://127.0.0.1:0/callback")

	var out bytes.Buffer
	res, err := Authenticate(context.Background(), cfg, LoginOptions{
		Out:     &out,
		Timeout: 5 * time.Second,
		OnURL: func(authURL string) {
			u, err := url.Parse(authURL)
			require.NoError(t, err)
			q := u.Query()
			cb := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=the-code"
			go func() {
				resp, err := http.Get(cb)
				if err == nil {
					resp.Body.Close()
				}
			}()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "access-1", res.Token.AccessToken)
	assert.Equal(t, int64(4242), res.AthleteID)
	assert.Contains(t, out.String(), "open this URL")
}

func TestAuthenticateRejectsBadState(t *testing.T) {
	cfg := testOAuthConfig("http://127.0.0.1:1/token", "http://127.0.0.1:0/callback")

	_, err := Authenticate(context.Background(), cfg, LoginOptions{
		Out:     &bytes.Buffer{},
		Timeout: 5 * time.Second,
		OnURL: func(authURL string) {
			u, _ := url.Parse(authURL)
			go func() {
				resp, err := http.Get(u.Query().Get("redirect_uri") + "?state=wrong&code=x")
				if err == nil {
					resp.Body.Close()
				}
			}()
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestAuthenticateRejectsMissingActivityScope(t *testing.T) {
	cfg := testOAuthConfig("http://127.0.0.1:1/token", "http://127.0.0.1:0/callback")

	_, err := Authenticate(context.Background(), cfg, LoginOptions{
		Out:     &bytes.Buffer{},
		Timeout: 5 * time.Second,
		OnURL: func(authURL string) {
			u, _ := url.Parse(authURL)
			q := u.Query()
			cb := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=x&scope=read"
			go func() {
				resp, err := http.Get(cb)
				if err == nil {
					resp.Body.Close()
				}
			}()
		},
	})
	assert.ErrorIs(t, err, ErrScopeDenied)
}

func TestGrantedActivityScope(t *testing.T) {
	assert.True(t, GrantedActivityScope("read,activity:read_all"))
	assert.True(t, GrantedActivityScope("activity:read_all"))
	assert.False(t, GrantedActivityScope("read,activity:read"))
	assert.False(t, GrantedActivityScope(""))
}

func TestAuthenticateHonoursContext(t *testing.T) {
	cfg := testOAuthConfig("http://127.0.0.1:1/token", "http://127.0.0.1:0/callback")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Authenticate(ctx, cfg, LoginOptions{Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStoredTokenSourceRefreshesAndPersists(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	cfg := testOAuthConfig(srv.URL, "")

	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = StoredTokenSource(ctx, cfg, db)
	assert.ErrorIs(t, err, store.ErrNoAuth)

	require.NoError(t, SaveResult(ctx, db, &AuthResult{
		AthleteID: 7,
		Token: &oauth2.Token{
			AccessToken:  "stale",
			RefreshToken: "refresh-0",
			Expiry:       time.Now().Add(30 * time.Second), // inside the refresh buffer
		},
	}))

	ts, err := StoredTokenSource(ctx, cfg, db)
	require.NoError(t, err)
	assert.True(t, ts.IsExpired())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)
	assert.False(t, ts.IsExpired())

	saved, err := db.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", saved.AccessToken)
	assert.Equal(t, "refresh-2", saved.RefreshToken)

	// a fresh token is served without another round trip
	_, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
