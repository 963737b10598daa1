package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"ticketlogger/internal/config"
	"ticketlogger/internal/services"
)

// fakeProvider serves a token endpoint and a user-info endpoint returning login.
func fakeProvider(t *testing.T, login string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "login": login})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newOAuth(t *testing.T, f *fixture, srv *httptest.Server) *services.OAuthService {
	t.Helper()
	svc := services.NewOAuthService(config.Config{StateSecret: "test-secret"}, f.auth)
	svc.Register(services.Provider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "csecret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "http://localhost/login/oauth2/code/github",
		},
		UserInfoURL:   srv.URL + "/user",
		UsernameField: "login",
	})
	return svc
}

func stateOf(t *testing.T, redirect string) string {
	t.Helper()
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestOAuthRegisteredUserLogsIn(t *testing.T) {
	f := newFixture(t)
	svc := newOAuth(t, f, fakeProvider(t, "user"))

	redirect, nonce, err := svc.AuthCodeURL("github")
	require.NoError(t, err)
	state := stateOf(t, redirect)
	require.NotEmpty(t, state)

	u, username, err := svc.Complete(context.Background(), "github", "good-code", state, nonce)
	require.NoError(t, err)
	assert.Equal(t, "user", username)
	assert.Equal(t, "user", u.Username)
}

func TestOAuthUnknownUserRejected(t *testing.T) {
	f := newFixture(t)
	svc := newOAuth(t, f, fakeProvider(t, "octocat"))

	redirect, nonce, err := svc.AuthCodeURL("github")
	require.NoError(t, err)
	_, username, err := svc.Complete(context.Background(), "github", "good-code", stateOf(t, redirect), nonce)
	assert.ErrorIs(t, err, services.ErrNotRegistered)
	assert.Equal(t, "octocat", username)
}

func TestOAuthStateChecks(t *testing.T) {
	f := newFixture(t)
	svc := newOAuth(t, f, fakeProvider(t, "user"))
	ctx := context.Background()

	redirect, nonce, err := svc.AuthCodeURL("github")
	require.NoError(t, err)
	state := stateOf(t, redirect)

	_, _, err = svc.Complete(ctx, "github", "good-code", state, "other-nonce")
	assert.ErrorIs(t, err, services.ErrBadState)

	_, _, err = svc.Complete(ctx, "github", "good-code", "not-a-jwt", nonce)
	assert.ErrorIs(t, err, services.ErrBadState)

	forged := services.NewOAuthService(config.Config{StateSecret: "other-secret"}, f.auth)
	forged.Register(services.Provider{Name: "github", Config: &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "http://x/auth"}}})
	fRedirect, fNonce, err := forged.AuthCodeURL("github")
	require.NoError(t, err)
	_, _, err = svc.Complete(ctx, "github", "good-code", stateOf(t, fRedirect), fNonce)
	assert.ErrorIs(t, err, services.ErrBadState)

	_, _, err = svc.Complete(ctx, "google", "good-code", state, nonce)
	assert.ErrorIs(t, err, services.ErrUnknownProvider)

	_, _, err = svc.Complete(ctx, "github", "bad-code", state, nonce)
	assert.Error(t, err)
}

func TestOAuthProvidersFromConfig(t *testing.T) {
	f := newFixture(t)
	svc := services.NewOAuthService(config.Config{
		StateSecret:       "s",
		OAuthRedirectBase: "https://tickets.example",
		GitHub:            config.OAuthClient{ClientID: "gh"},
		Google:            config.OAuthClient{ClientID: "gg"},
	}, f.auth)
	assert.Equal(t, []string{"github", "google"}, svc.Providers())

	redirect, _, err := svc.AuthCodeURL("google")
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "https://tickets.example/login/oauth2/code/google", u.Query().Get("redirect_uri"))

	_, _, err = svc.AuthCodeURL("gitlab")
	assert.ErrorIs(t, err, services.ErrUnknownProvider)
}
