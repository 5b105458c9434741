// Package gauth implements the Google OAuth 2.0 login flow with PKCE.
//
// The flow state (PKCE verifier and the client redirect URI) is kept
// in a StateStorage keyed by the OAuth state parameter.
package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/coursetutor/backend/internal/authutil"
	"github.com/coursetutor/backend/internal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrRedirectURINotAllowed = errors.New("redirect_uri is not allowed")
	ErrMissingCode           = errors.New("code is required")
)

// BuildOAuthConfig builds an oauth2.Config from the GAuth configuration.
func BuildOAuthConfig(gauthConfig config.GAuthConfig, callbackURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     gauthConfig.ClientID,
		ClientSecret: gauthConfig.ClientSecret,
		RedirectURL:  callbackURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// UserInfo is the Google profile of the logged-in user.
type UserInfo struct {
	Email   string
	Name    string
	Picture string
}

// Flow drives the login: Authorize redirects to Google, Exchange
// handles the callback.
type Flow struct {
	oauthConfig  *oauth2.Config
	states       StateStorage
	redirectURIs []string

	// fetchUserInfo is replaced in tests.
	fetchUserInfo func(ctx context.Context, token *oauth2.Token) (UserInfo, error)
}

func NewFlow(oauthConfig *oauth2.Config, states StateStorage, redirectURIs []string) *Flow {
	f := &Flow{
		oauthConfig:  oauthConfig,
		states:       states,
		redirectURIs: redirectURIs,
	}
	f.fetchUserInfo = f.googleUserInfo

	return f
}

type flowState struct {
	Verifier    string `json:"verifier"`
	RedirectURI string `json:"redirect_uri"`
}

// Authorize redirects the browser to the Google consent page.
//
// The redirect_uri query parameter is where the browser is sent
// after a successful login; it must be one of the configured URIs.
func (f *Flow) Authorize(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")
	if !slices.Contains(f.redirectURIs, redirectURI) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid_request",
			"detail": ErrRedirectURINotAllowed.Error(),
		})
		return
	}

	verifier, err := authutil.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "server_error",
			"detail": err.Error(),
		})
		return
	}

	data, err := json.Marshal(flowState{Verifier: verifier, RedirectURI: redirectURI})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "server_error",
			"detail": err.Error(),
		})
		return
	}

	state, err := f.states.New(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "server_error",
			"detail": err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, f.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	))
}

// Exchange consumes the state, exchanges the code with Google and
// returns the user profile with the client redirect URI.
func (f *Flow) Exchange(ctx context.Context, state, code string) (UserInfo, string, error) {
	if code == "" {
		return UserInfo{}, "", ErrMissingCode
	}

	data, err := f.states.Use(ctx, state)
	if err != nil {
		return UserInfo{}, "", err
	}

	var fs flowState
	if err := json.Unmarshal(data, &fs); err != nil {
		return UserInfo{}, "", fmt.Errorf("decode state: %w", err)
	}

	token, err := f.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(fs.Verifier))
	if err != nil {
		return UserInfo{}, fs.RedirectURI, fmt.Errorf("exchange code: %w", err)
	}

	info, err := f.fetchUserInfo(ctx, token)
	if err != nil {
		return UserInfo{}, fs.RedirectURI, err
	}

	return info, fs.RedirectURI, nil
}

func (f *Flow) googleUserInfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	client, err := googleoauth2.NewService(ctx, option.WithTokenSource(f.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return UserInfo{}, fmt.Errorf("create google client: %w", err)
	}

	user, err := client.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserInfo{}, fmt.Errorf("get google user info: %w", err)
	}

	return UserInfo{Email: user.Email, Name: user.Name, Picture: user.Picture}, nil
}
