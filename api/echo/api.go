// Package echo holds the web-facing route handlers. Handlers are thin glue:
// they map a verb+path onto one service operation and answer with a render
// or a redirect, never with a structured error body.
package echo

import (
	"context"
	"errors"
	"net/http"

	"github.com/confide-dev/confide/domain"
	"github.com/confide-dev/confide/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebAPI struct to hold dependencies.
type WebAPI struct {
	auth          *services.AuthService
	federation    *services.FederationService
	sessions      *services.SessionService
	users         domain.UserRepository
	health        func(ctx context.Context) error
	cookieName    string
	secureCookies bool
}

// WebAPIConfig carries the handler-level settings.
type WebAPIConfig struct {
	CookieName    string
	SecureCookies bool
	// Health reports backing-store reachability for /healthz. Optional.
	Health func(ctx context.Context) error
}

// NewWebAPI initializes the web API.
func NewWebAPI(
	auth *services.AuthService,
	federation *services.FederationService,
	sessions *services.SessionService,
	users domain.UserRepository,
	cfg WebAPIConfig,
) *WebAPI {
	if cfg.CookieName == "" {
		cfg.CookieName = "confide_session"
	}
	return &WebAPI{
		auth:          auth,
		federation:    federation,
		sessions:      sessions,
		users:         users,
		health:        cfg.Health,
		cookieName:    cfg.CookieName,
		secureCookies: cfg.SecureCookies,
	}
}

// RegisterRoutes registers the application routes.
func (a *WebAPI) RegisterRoutes(e *echo.Echo) {
	e.Renderer = NewRenderer()
	e.Use(a.sessionMiddleware)

	e.GET("/", a.HomeHandler)
	e.GET("/register", a.RegisterFormHandler)
	e.POST("/register", a.RegisterHandler)
	e.GET("/login", a.LoginFormHandler)
	e.POST("/login", a.LoginHandler)
	e.GET("/auth/google", a.GoogleAuthHandler)
	e.GET("/auth/google/secrets", a.GoogleCallbackHandler)
	e.GET("/secrets", a.SecretsHandler)
	e.GET("/submit", a.SubmitFormHandler, requireAuth)
	e.POST("/submit", a.SubmitHandler)
	e.GET("/logout", a.LogoutHandler)
	e.GET("/healthz", a.HealthHandler)
}

// HomeHandler renders the landing page.
func (a *WebAPI) HomeHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", nil)
}

type formData struct {
	Failed bool
}

// RegisterFormHandler renders the registration form.
func (a *WebAPI) RegisterFormHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", formData{Failed: c.QueryParam("failed") != ""})
}

// RegisterHandler creates an account and starts a session. Every failure,
// from a taken username to an unreachable store, sends the user back to the
// registration form.
func (a *WebAPI) RegisterHandler(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	session, err := a.auth.Register(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrInvalidCredentials) {
			log.Info().Str("username", username).Msg("Registration rejected")
		} else {
			log.Error().Err(err).Msg("Registration failed")
		}
		return c.Redirect(http.StatusFound, "/register?failed=1")
	}

	a.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Redirect(http.StatusFound, "/secrets")
}

// LoginFormHandler renders the login form.
func (a *WebAPI) LoginFormHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", formData{Failed: c.QueryParam("failed") != ""})
}

// LoginHandler validates credentials and starts a session. Unknown username
// and wrong password answer identically.
func (a *WebAPI) LoginHandler(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	session, err := a.auth.Login(c.Request().Context(), username, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("Login failed")
		}
		return c.Redirect(http.StatusFound, "/login?failed=1")
	}

	a.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Redirect(http.StatusFound, "/secrets")
}

// GoogleAuthHandler starts the federated flow by redirecting to Google's
// consent screen, requesting the profile scope.
func (a *WebAPI) GoogleAuthHandler(c echo.Context) error {
	authURL, state, err := a.federation.BeginAuthorization("profile")
	if err != nil {
		log.Error().Err(err).Msg("Failed to begin federated authorization")
		return c.Redirect(http.StatusFound, "/login")
	}

	a.setStateCookie(c, state)
	return c.Redirect(http.StatusFound, authURL)
}

// GoogleCallbackHandler completes the federated flow. Any provider failure
// redirects to the login entry point; no raw error ever reaches the client.
func (a *WebAPI) GoogleCallbackHandler(c echo.Context) error {
	expectedState := ""
	if cookie, err := c.Cookie(a.stateCookieName()); err == nil {
		expectedState = cookie.Value
	}
	a.clearStateCookie(c)

	session, err := a.federation.CompleteAuthorization(
		c.Request().Context(),
		c.QueryParam("code"),
		c.QueryParam("state"),
		expectedState,
	)
	if err != nil {
		log.Warn().Err(err).Msg("Federated authorization failed")
		return c.Redirect(http.StatusFound, "/login")
	}

	a.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Redirect(http.StatusFound, "/secrets")
}

type secretsData struct {
	Secrets       []string
	Authenticated bool
}

// SecretsHandler renders every shared secret without author attribution. A
// store failure renders the empty state instead of an error page.
func (a *WebAPI) SecretsHandler(c echo.Context) error {
	data := secretsData{Authenticated: currentUser(c) != nil}

	users, err := a.users.ListUsersWithSecrets(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list secrets")
	} else {
		for _, user := range users {
			data.Secrets = append(data.Secrets, user.Secret)
		}
	}

	return c.Render(http.StatusOK, "secrets.html", data)
}

// SubmitFormHandler renders the submission form; requireAuth already
// redirected anonymous requests to /login.
func (a *WebAPI) SubmitFormHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "submit.html", nil)
}

// SubmitHandler overwrites the current user's secret. The guard is explicit
// here rather than in route middleware: an anonymous POST must redirect to
// /login, never dereference a missing identity.
func (a *WebAPI) SubmitHandler(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	secret := c.FormValue("secret")
	if secret == "" {
		return c.Redirect(http.StatusFound, "/submit")
	}

	if err := a.users.SetSecret(c.Request().Context(), user.ID, secret); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to save secret")
	}
	return c.Redirect(http.StatusFound, "/secrets")
}

// LogoutHandler destroys the session server-side and expires the cookie.
func (a *WebAPI) LogoutHandler(c echo.Context) error {
	if cookie, err := c.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		if err := a.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("Failed to destroy session")
		}
	}
	a.clearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/")
}

// HealthHandler reports backing-store reachability.
func (a *WebAPI) HealthHandler(c echo.Context) error {
	if a.health != nil {
		if err := a.health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
