package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/damacus/iron-explorer/internal/utils"
)

// CSRF guards cookie sessions. Safe methods mint the token cookie; unsafe
// methods must echo it in X-CSRF-Token. Requests without a session cookie
// carry no ambient authority and are not checked.
func CSRF() echo.MiddlewareFunc {
	return echoMiddleware.CSRFWithConfig(echoMiddleware.CSRFConfig{
		TokenLookup:    "header:" + utils.CSRFHeader,
		CookieName:     utils.CSRFCookieName,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteStrictMode,
		Skipper: func(c echo.Context) bool {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return false
			}
			if c.Request().URL.Path == "/connect" {
				return true
			}

			_, err := c.Cookie(utils.CookieName)
			return err != nil
		},
	})
}
