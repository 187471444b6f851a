package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
)

// publicPaths are served without credentials.
var publicPaths = map[string]bool{
	"/health":     true,
	"/metrics":    true,
	"/connect":    true,
	"/disconnect": true,
}

// AuthMiddleware resolves the caller's storage credentials from the IronSeal
// cookie. Without a usable cookie it falls back to static, when set, and
// answers 401 otherwise.
func AuthMiddleware(authService *services.AuthService, static *services.Credentials, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if publicPaths[c.Request().URL.Path] {
				return next(c)
			}

			cookie, err := c.Cookie(utils.CookieName)
			if err == nil {
				creds, err := authService.DecryptCredentials(cookie.Value)
				if err == nil {
					c.Set(utils.ContextKeyCreds, creds)
					return next(c)
				}
				logger.Debug("dropping unreadable session cookie", zap.Error(err))

				// Invalid cookie - Clear it to prevent loop
				cookie.Value = ""
				cookie.Path = "/"
				cookie.MaxAge = -1
				c.SetCookie(cookie)
			}

			if static != nil {
				creds := *static
				c.Set(utils.ContextKeyCreds, &creds)
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Not connected")
		}
	}
}
