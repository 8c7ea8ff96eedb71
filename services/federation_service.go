package services

import (
	"context"
	"fmt"

	"github.com/confide-dev/confide/domain"
	"github.com/confide-dev/confide/internal/federation"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FederationService drives the authorization-code flow against an external
// identity provider and maps the returned stable identity onto a local user
// with an atomic find-or-create.
type FederationService struct {
	provider    federation.OAuth2Provider
	users       domain.UserRepository
	sessions    *SessionService
	redirectURL string
}

// NewFederationService creates a FederationService. redirectURL must match
// the redirect URI registered with the provider exactly, including
// scheme/host/port/path.
func NewFederationService(provider federation.OAuth2Provider, users domain.UserRepository, sessions *SessionService, redirectURL string) *FederationService {
	return &FederationService{
		provider:    provider,
		users:       users,
		sessions:    sessions,
		redirectURL: redirectURL,
	}
}

// BeginAuthorization builds the provider's consent URL for the given scopes
// and returns it with the state value the callback must echo back.
func (s *FederationService) BeginAuthorization(scopes ...string) (authURL, state string, err error) {
	state = uuid.NewString()
	authURL, err = s.provider.GetAuthCodeURL(state, s.redirectURL, scopes)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	return authURL, state, nil
}

// CompleteAuthorization exchanges the authorization code for the provider's
// stable user identity, runs find-or-create, and establishes a session.
// queryState is the state echoed back by the provider; expectedState is the
// value issued by BeginAuthorization. Any provider-side failure is reported
// as domain.ErrProvider; callers redirect to the login entry point rather
// than surface it.
func (s *FederationService) CompleteAuthorization(ctx context.Context, code, queryState, expectedState string) (*domain.Session, error) {
	if expectedState == "" || queryState != expectedState {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, federation.ErrInvalidAuthState)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrProvider)
	}

	token, err := s.provider.ExchangeCode(ctx, s.redirectURL, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	info, err := s.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	if info.ProviderUserID == "" {
		return nil, fmt.Errorf("%w: provider returned no stable identity", domain.ErrProvider)
	}

	user, err := s.users.FindOrCreateByGoogleID(ctx, info.ProviderUserID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("provider", s.provider.Name()).Msg("Federated login completed")
	return s.sessions.Establish(ctx, user.ID)
}
