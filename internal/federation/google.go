package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

// GoogleUserInfoEndpoint is a variable so tests can point it at a local
// httptest server.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider implements the OAuth2Provider interface for Google.
type GoogleProvider struct {
	config Config
}

// NewGoogleProvider creates a new GoogleProvider. The "openid" scope is
// always requested so the userinfo response carries the stable 'sub' claim.
func NewGoogleProvider(cfg Config) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrProviderMisconfigured
	}

	hasOpenID := false
	for _, scope := range cfg.Scopes {
		if scope == "openid" {
			hasOpenID = true
		}
	}
	if !hasOpenID {
		cfg.Scopes = append([]string{"openid"}, cfg.Scopes...)
	}

	return &GoogleProvider{config: cfg}, nil
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) oauth2Config(redirectURL string, scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = g.config.Scopes
	} else if scopes[0] != "openid" {
		scopes = append([]string{"openid"}, scopes...)
	}
	return &oauth2.Config{
		ClientID:     g.config.ClientID,
		ClientSecret: g.config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     googleOAuth2.Endpoint,
	}
}

// GetAuthCodeURL builds the Google consent-screen URL requesting the given
// scopes.
func (g *GoogleProvider) GetAuthCodeURL(state, redirectURL string, scopes []string, opts ...oauth2.AuthCodeOption) (string, error) {
	return g.oauth2Config(redirectURL, scopes).AuthCodeURL(state, opts...), nil
}

// ExchangeCode exchanges the authorization code against Google's token
// endpoint.
func (g *GoogleProvider) ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := g.oauth2Config(redirectURL, nil).Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeCodeFailed, err)
	}
	return token, nil
}

// GetHttpClient returns a client that attaches the token to outgoing
// requests.
func (g *GoogleProvider) GetHttpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return g.oauth2Config("", nil).Client(ctx, token)
}

// FetchUserInfo fetches the user's profile from Google's userinfo endpoint.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	client := g.GetHttpClient(ctx, token)
	resp, err := client.Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrFetchUserInfoFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(rawBody))
	}

	var rawUserInfo struct {
		Sub        string `json:"sub"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
		Email      string `json:"email"`
	}
	if err := json.Unmarshal(rawBody, &rawUserInfo); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrFetchUserInfoFailed, err)
	}
	if rawUserInfo.Sub == "" {
		return nil, fmt.Errorf("%w: response carried no subject identifier", ErrFetchUserInfoFailed)
	}

	var rawDataMap map[string]any
	_ = json.Unmarshal(rawBody, &rawDataMap)

	return &ExternalUserInfo{
		ProviderUserID: rawUserInfo.Sub,
		Email:          rawUserInfo.Email,
		FirstName:      rawUserInfo.GivenName,
		LastName:       rawUserInfo.FamilyName,
		PictureURL:     rawUserInfo.Picture,
		RawData:        rawDataMap,
	}, nil
}

// Ensure GoogleProvider implements OAuth2Provider.
var _ OAuth2Provider = (*GoogleProvider)(nil)
