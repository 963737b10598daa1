package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"ticketlogger/internal/config"
	"ticketlogger/internal/domain"
)

// Provider describes one OAuth2 login provider. UsernameField is the gjson path
// of the account name inside the user-info document.
type Provider struct {
	Name          string
	Config        *oauth2.Config
	UserInfoURL   string
	UsernameField string
}

type OAuthService struct {
	Auth      *AuthService
	providers map[string]Provider
	secret    []byte
	stateTTL  time.Duration
}

func NewOAuthService(cfg config.Config, auth *AuthService) *OAuthService {
	s := &OAuthService{
		Auth:      auth,
		providers: map[string]Provider{},
		secret:    []byte(cfg.StateSecret),
		stateTTL:  10 * time.Minute,
	}
	callback := func(name string) string { return cfg.OAuthRedirectBase + "/login/oauth2/code/" + name }

	if cfg.GitHub.ClientID != "" {
		s.Register(Provider{
			Name: "github",
			Config: &oauth2.Config{
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				Endpoint:     endpoints.GitHub,
				RedirectURL:  callback("github"),
				Scopes:       []string{"read:user"},
			},
			UserInfoURL:   "https://api.github.com/user",
			UsernameField: "login",
		})
	}
	if cfg.Google.ClientID != "" {
		s.Register(Provider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  callback("google"),
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL:   "https://openidconnect.googleapis.com/v1/userinfo",
			UsernameField: "email",
		})
	}
	return s
}

func (s *OAuthService) Register(p Provider) { s.providers[p.Name] = p }

// Providers lists the configured provider names, sorted.
func (s *OAuthService) Providers() []string {
	out := make([]string, 0, len(s.providers))
	for name := range s.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type stateClaims struct {
	Nonce    string `json:"nonce"`
	Provider string `json:"prv"`
	jwt.RegisteredClaims
}

// AuthCodeURL returns the provider redirect and the nonce the caller must keep in the session.
func (s *OAuthService) AuthCodeURL(provider string) (redirect, nonce string, err error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", "", ErrUnknownProvider
	}
	nonce = uuid.NewString()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		Nonce:    nonce,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
	})
	state, err := tok.SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign state: %w", err)
	}
	return p.Config.AuthCodeURL(state), nonce, nil
}

func (s *OAuthService) verifyState(state, provider, nonce string) error {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if nonce == "" || claims.Nonce != nonce || claims.Provider != provider {
		return ErrBadState
	}
	return nil
}

// Complete verifies state, exchanges code and admits the profile's username only if it
// belongs to an enabled local account.
func (s *OAuthService) Complete(ctx context.Context, provider, code, state, nonce string) (*domain.User, string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, "", ErrUnknownProvider
	}
	if err := s.verifyState(state, provider, nonce); err != nil {
		return nil, "", err
	}
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("exchange code: %w", err)
	}
	username, err := s.fetchUsername(ctx, p, tok)
	if err != nil {
		return nil, "", err
	}
	u, err := s.Auth.Registered(ctx, username)
	return u, username, err
}

func (s *OAuthService) fetchUsername(ctx context.Context, p Provider, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("user info is not valid json")
	}
	return gjson.GetBytes(body, p.UsernameField).String(), nil
}
