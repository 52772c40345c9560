package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/response"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer   = "https://accounts.google.com"
	stateCookie    = "oauth_state"
	stateCookieTTL = 300
)

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	SecureCookies    bool
}

// Google drives the OAuth2 code flow and verifies the returned ID token.
type Google struct {
	cfg   GoogleConfig
	oauth *oauth2.Config

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogle(cfg GoogleConfig) *Google {
	return &Google{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *Google) Enabled() bool {
	return g != nil && g.cfg.ClientID != "" && g.cfg.ClientSecret != ""
}

// idVerifier discovers the provider once; a failed discovery is retried on
// the next call.
func (g *Google) idVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	return g.verifier, nil
}

// Identity exchanges the authorization code and verifies the ID token.
func (g *Google) Identity(ctx context.Context, code string) (*GoogleIdentity, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "failed to exchange code", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperr.Unauthorized("missing id_token")
	}

	verifier, err := g.idVerifier(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "failed to init google oidc provider", err)
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "invalid id_token", err)
	}

	var id GoogleIdentity
	if err := idToken.Claims(&id); err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "failed to decode token claims", err)
	}
	if id.Email == "" || id.Sub == "" {
		return nil, apperr.Unauthorized("token missing required claims")
	}
	return &id, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var errGoogleDisabled = errors.New("google sign-in not configured")

// GoogleStart serves GET /api/auth/google.
func (h *Handler) GoogleStart(c *gin.Context) {
	if !h.google.Enabled() {
		response.Message(c, http.StatusServiceUnavailable, errGoogleDisabled.Error())
		return
	}
	state, err := randomState()
	if err != nil {
		response.Fail(c, apperr.Wrap(apperr.KindInternal, "failed to generate state", err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieTTL, "/", "", h.google.cfg.SecureCookies, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback serves GET /api/auth/google/callback.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if !h.google.Enabled() {
		response.Message(c, http.StatusServiceUnavailable, errGoogleDisabled.Error())
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		response.Fail(c, apperr.Validation("missing code/state"))
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		response.Fail(c, apperr.Validation("invalid oauth state"))
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.google.cfg.SecureCookies, true)

	ctx := c.Request.Context()
	id, err := h.google.Identity(ctx, code)
	if err != nil {
		response.Fail(c, err)
		return
	}
	session, err := h.service.SocialSignIn(ctx, *id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	redirect := h.google.cfg.FrontendRedirect
	if redirect == "" {
		response.OK(c, session)
		return
	}
	c.Redirect(http.StatusFound, redirect+"?token="+url.QueryEscape(session.Token))
}
