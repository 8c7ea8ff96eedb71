package echo

import (
	"errors"
	"net/http"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const userContextKey = "confide.user"

// currentUser returns the authenticated user stashed by the session
// middleware, or nil for an anonymous request.
func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}

// sessionMiddleware resolves the session cookie to a user on every request.
// A missing, expired or destroyed token leaves the request anonymous; it
// never fails the request.
func (a *WebAPI) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		userID, err := a.sessions.Resolve(ctx, cookie.Value)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Error().Err(err).Msg("Failed to resolve session token")
			}
			return next(c)
		}

		user, err := a.users.GetUserByID(ctx, userID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to load session user")
			}
			return next(c)
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// requireAuth gates a route on an authenticated session; anonymous requests
// are redirected to the login form.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) == nil {
			return c.Redirect(http.StatusFound, "/login")
		}
		return next(c)
	}
}

func (a *WebAPI) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *WebAPI) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *WebAPI) stateCookieName() string {
	return a.cookieName + "_oauth_state"
}

func (a *WebAPI) setStateCookie(c echo.Context, state string) {
	c.SetCookie(&http.Cookie{
		Name:     a.stateCookieName(),
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *WebAPI) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     a.stateCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
