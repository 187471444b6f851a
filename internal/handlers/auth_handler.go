package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/store"
	"github.com/damacus/iron-explorer/internal/utils"
)

const sessionLifetime = 24 * time.Hour

type AuthHandler struct {
	authService *services.AuthService
	factory     store.Factory
	defaults    services.Credentials
	logger      *zap.Logger
}

// NewAuthHandler creates the session handler. defaults supplies the driver,
// endpoint and region when a connect request leaves them out.
func NewAuthHandler(authService *services.AuthService, factory store.Factory, defaults services.Credentials, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		factory:     factory,
		defaults:    defaults,
		logger:      logger,
	}
}

type connectRequest struct {
	Driver    string `json:"driver" form:"driver"`
	Endpoint  string `json:"endpoint" form:"endpoint"`
	Region    string `json:"region" form:"region"`
	AccessKey string `json:"accessKey" form:"accessKey"`
	SecretKey string `json:"secretKey" form:"secretKey"`
}

// Connect verifies credentials against the backend and stores them in the
// session cookie.
func (h *AuthHandler) Connect(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, "", err)
	}

	creds := services.Credentials{
		Driver:    firstNonEmpty(req.Driver, h.defaults.Driver),
		Endpoint:  firstNonEmpty(req.Endpoint, h.defaults.Endpoint),
		Region:    firstNonEmpty(req.Region, h.defaults.Region),
		AccessKey: req.AccessKey,
		SecretKey: req.SecretKey,
	}

	s, err := h.factory.NewStore(c.Request().Context(), creds)
	if err != nil {
		return respond(c, "", err)
	}

	// ListBuckets works for every user, not only administrators.
	if _, err := s.ListBuckets(c.Request().Context()); err != nil {
		h.logger.Info("connect rejected", zap.Stringer("creds", creds), zap.Error(err))
		return respond(c, "", err)
	}

	encrypted, err := h.authService.EncryptCredentials(creds)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = encrypted
	cookie.Expires = time.Now().Add(sessionLifetime)
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)

	h.logger.Info("session opened", zap.Stringer("creds", creds))
	return c.JSON(http.StatusOK, models.Outcome{Success: true, Kind: models.OutcomeSuccess})
}

// Disconnect clears the session
func (h *AuthHandler) Disconnect(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = ""
	cookie.Expires = time.Now().Add(-1 * time.Hour)
	cookie.MaxAge = -1
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, models.Outcome{Success: true, Kind: models.OutcomeSuccess})
}

func requestIsSecure(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return req.Header.Get("X-Forwarded-Proto") == "https"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
