// Package auth implements the Google OAuth boundary. It produces an opaque
// authenticated identity; the room treats the resulting author string as
// untrusted input.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/config"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/gin-gonic/gin"
)

const (
	googleAuthURL     = "https://accounts.google.com/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Identity is the authenticated user as Google reports it.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Service handles the OAuth redirect flow and the session cookie.
type Service struct {
	cfg        config.AuthConfig
	logger     *logx.Logger
	httpClient *http.Client
}

// NewService creates the auth service.
func NewService(cfg config.AuthConfig, logger *logx.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HandleGoogle serves /auth/google. Without a code it redirects to the Google
// consent screen; with one it exchanges the code, fetches the user info, sets
// the session cookie and redirects home.
func (s *Service) HandleGoogle(c *gin.Context) {
	code := c.Query("code")
	redirectURI := s.redirectURI(c.Request)

	if code == "" {
		params := url.Values{}
		params.Set("client_id", s.cfg.GoogleClientID)
		params.Set("redirect_uri", redirectURI)
		params.Set("response_type", "code")
		params.Set("scope", "openid profile email")
		c.Redirect(http.StatusFound, googleAuthURL+"?"+params.Encode())
		return
	}

	identity, err := s.exchange(c.Request.Context(), code, redirectURI)
	if err != nil {
		s.logger.Error(c.Request.Context(), "google auth exchange failed", logx.KV("error", err))
		c.String(http.StatusBadGateway, "authentication failed")
		return
	}

	cookie, err := EncodeIdentity(identity)
	if err != nil {
		s.logger.Error(c.Request.Context(), "failed to encode identity", logx.KV("error", err))
		c.String(http.StatusInternalServerError, "authentication failed")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    cookie,
		Path:     "/",
		MaxAge:   s.cfg.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	c.Redirect(http.StatusFound, "/")
}

// exchange turns an authorization code into an Identity.
func (s *Service) exchange(ctx context.Context, code, redirectURI string) (Identity, error) {
	form := url.Values{}
	form.Set("client_id", s.cfg.GoogleClientID)
	form.Set("client_secret", s.cfg.GoogleClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()

	var tokenData struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenData); err != nil {
		return Identity{}, err
	}
	if tokenData.AccessToken == "" {
		return Identity{}, fmt.Errorf("token exchange returned no access token (status %d)", resp.StatusCode)
	}

	userReq, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	userReq.Header.Set("Authorization", "Bearer "+tokenData.AccessToken)

	userResp, err := s.httpClient.Do(userReq)
	if err != nil {
		return Identity{}, err
	}
	defer userResp.Body.Close()

	var identity Identity
	if err := json.NewDecoder(userResp.Body).Decode(&identity); err != nil {
		return Identity{}, err
	}
	if identity.Email == "" {
		return Identity{}, fmt.Errorf("userinfo returned no email (status %d)", userResp.StatusCode)
	}

	return identity, nil
}

func (s *Service) redirectURI(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + req.Host + "/auth/google"
}

// IdentityFromRequest reads the session cookie. The second return is false
// when no valid identity is present.
func (s *Service) IdentityFromRequest(req *http.Request) (Identity, bool) {
	cookie, err := req.Cookie(s.cfg.CookieName)
	if err != nil {
		return Identity{}, false
	}
	identity, err := DecodeIdentity(cookie.Value)
	if err != nil {
		return Identity{}, false
	}
	return identity, true
}

// Author returns the identity string embedded in new notes. Unauthenticated
// connections are labelled anonymous; the store does not validate authors.
func (s *Service) Author(req *http.Request) string {
	if identity, ok := s.IdentityFromRequest(req); ok {
		return identity.Email
	}
	return "anonymous"
}

// EncodeIdentity serializes an identity for the session cookie.
func EncodeIdentity(identity Identity) (string, error) {
	data, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeIdentity reverses EncodeIdentity.
func DecodeIdentity(value string) (Identity, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Identity{}, err
	}
	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return Identity{}, err
	}
	if identity.Email == "" {
		return Identity{}, fmt.Errorf("identity cookie has no email")
	}
	return identity, nil
}
