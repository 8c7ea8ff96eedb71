package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/confide-dev/confide/domain"
	"github.com/confide-dev/confide/internal/federation"
	"github.com/confide-dev/confide/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider is a hand-rolled federation.OAuth2Provider for service tests.
type fakeProvider struct {
	exchangeErr error
	userInfoErr error
	userInfo    *federation.ExternalUserInfo
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetAuthCodeURL(state, redirectURL string, scopes []string, _ ...oauth2.AuthCodeOption) (string, error) {
	return "https://provider.example.com/auth?state=" + state, nil
}

func (f *fakeProvider) ExchangeCode(_ context.Context, _, code string, _ ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (f *fakeProvider) FetchUserInfo(_ context.Context, _ *oauth2.Token) (*federation.ExternalUserInfo, error) {
	if f.userInfoErr != nil {
		return nil, f.userInfoErr
	}
	return f.userInfo, nil
}

func (f *fakeProvider) GetHttpClient(_ context.Context, _ *oauth2.Token) *http.Client {
	return http.DefaultClient
}

func TestFederationService_BeginAuthorization(t *testing.T) {
	users := new(MockUserRepository)
	svc := services.NewFederationService(&fakeProvider{}, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

	authURL, state, err := svc.BeginAuthorization("profile")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, authURL, state)

	// Each authorization attempt gets a fresh state value.
	_, otherState, err := svc.BeginAuthorization("profile")
	require.NoError(t, err)
	assert.NotEqual(t, state, otherState)
}

func TestFederationService_CompleteAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("success runs find-or-create and establishes a session", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := newSessionService(t)
		provider := &fakeProvider{userInfo: &federation.ExternalUserInfo{ProviderUserID: "goog-42"}}
		svc := services.NewFederationService(provider, users, sessions, "http://localhost:3000/auth/google/secrets")

		users.On("FindOrCreateByGoogleID", ctx, "goog-42").
			Return(&domain.User{ID: "user-42", GoogleID: "goog-42"}, nil)

		session, err := svc.CompleteAuthorization(ctx, "auth-code", "state-1", "state-1")
		require.NoError(t, err)

		userID, err := sessions.Resolve(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", userID)
		users.AssertExpectations(t)
	})

	t.Run("exchange failure is a provider error and creates no user", func(t *testing.T) {
		users := new(MockUserRepository)
		provider := &fakeProvider{exchangeErr: errors.New("code expired")}
		svc := services.NewFederationService(provider, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

		_, err := svc.CompleteAuthorization(ctx, "bad-code", "state-1", "state-1")
		assert.ErrorIs(t, err, domain.ErrProvider)
		users.AssertNotCalled(t, "FindOrCreateByGoogleID", ctx, "goog-42")
	})

	t.Run("userinfo failure is a provider error", func(t *testing.T) {
		users := new(MockUserRepository)
		provider := &fakeProvider{userInfoErr: errors.New("userinfo down")}
		svc := services.NewFederationService(provider, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

		_, err := svc.CompleteAuthorization(ctx, "auth-code", "state-1", "state-1")
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("state mismatch is rejected before any exchange", func(t *testing.T) {
		users := new(MockUserRepository)
		provider := &fakeProvider{userInfo: &federation.ExternalUserInfo{ProviderUserID: "goog-42"}}
		svc := services.NewFederationService(provider, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

		_, err := svc.CompleteAuthorization(ctx, "auth-code", "attacker-state", "state-1")
		assert.ErrorIs(t, err, domain.ErrProvider)

		_, err = svc.CompleteAuthorization(ctx, "auth-code", "", "")
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("missing code is a provider error", func(t *testing.T) {
		users := new(MockUserRepository)
		provider := &fakeProvider{userInfo: &federation.ExternalUserInfo{ProviderUserID: "goog-42"}}
		svc := services.NewFederationService(provider, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

		_, err := svc.CompleteAuthorization(ctx, "", "state-1", "state-1")
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("empty provider identity is a provider error", func(t *testing.T) {
		users := new(MockUserRepository)
		provider := &fakeProvider{userInfo: &federation.ExternalUserInfo{}}
		svc := services.NewFederationService(provider, users, newSessionService(t), "http://localhost:3000/auth/google/secrets")

		_, err := svc.CompleteAuthorization(ctx, "auth-code", "state-1", "state-1")
		assert.ErrorIs(t, err, domain.ErrProvider)
	})
}
