package federation

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// ExternalUserInfo holds standardized user information retrieved from an
// external OAuth2 provider.
type ExternalUserInfo struct {
	// ProviderUserID is the user's unique, stable ID within the external
	// provider (e.g. Google's 'sub' claim).
	ProviderUserID string
	Email          string
	FirstName      string
	LastName       string
	PictureURL     string
	RawData        map[string]any
}

// Config holds the credentials and scopes registered with an external
// provider.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// OAuth2Provider defines the interface for an external OAuth2 identity
// provider. Implementations handle provider-specific endpoints and user-info
// response shapes.
type OAuth2Provider interface {
	// Name returns the unique identifier for the provider (e.g. "google").
	Name() string

	// GetAuthCodeURL generates the authorization URL the user should be
	// redirected to, requesting the given scopes (the configured scopes
	// apply when none are given). state is an unguessable value echoed back
	// on the callback for CSRF protection; redirectURL must match the
	// redirect URI registered with the provider exactly.
	GetAuthCodeURL(state, redirectURL string, scopes []string, opts ...oauth2.AuthCodeOption) (string, error)

	// ExchangeCode exchanges an authorization code for an OAuth2 token.
	ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// FetchUserInfo uses an access token to retrieve user information from
	// the provider, returning a standardized ExternalUserInfo.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error)

	// GetHttpClient returns an *http.Client authenticated with the given
	// token for requests against the provider's API.
	GetHttpClient(ctx context.Context, token *oauth2.Token) *http.Client
}
