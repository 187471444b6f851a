package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/damacus/iron-explorer/internal/explorer"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/store"
	"github.com/damacus/iron-explorer/internal/utils"
)

// GetCredentials retrieves and validates credentials from the context
func GetCredentials(c echo.Context) (*services.Credentials, error) {
	val := c.Get(utils.ContextKeyCreds)
	if val == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	creds, ok := val.(*services.Credentials)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return creds, nil
}

// openStore builds a store for the caller's credentials.
func openStore(c echo.Context, factory store.Factory) (store.Store, error) {
	creds, err := GetCredentials(c)
	if err != nil {
		return nil, err
	}
	s, err := factory.NewStore(c.Request().Context(), *creds)
	if err != nil {
		return nil, echo.NewHTTPError(statusFor(err), "Failed to connect to storage: "+err.Error())
	}
	return s, nil
}

// classify maps an error to its HTTP status and outcome kind.
func classify(err error) (int, models.OutcomeKind) {
	var (
		ve *explorer.ValidationError
		be *explorer.BatchError
		re *explorer.RenameError
	)
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrMissingEndpoint),
		errors.Is(err, services.ErrMissingKeys),
		errors.Is(err, store.ErrUnknownDriver):
		return http.StatusBadRequest, models.OutcomeValidation
	case errors.Is(err, explorer.ErrAlreadyExists):
		return http.StatusConflict, models.OutcomeConflict
	case errors.As(err, &be):
		return http.StatusMultiStatus, models.OutcomePartial
	case errors.As(err, &re) && re.Partial:
		return http.StatusMultiStatus, models.OutcomePartial
	case store.IsNotFound(err):
		return http.StatusNotFound, models.OutcomeNotFound
	case store.IsAccessDenied(err):
		return http.StatusForbidden, models.OutcomeBackend
	case errors.Is(err, store.ErrThrottled):
		return http.StatusTooManyRequests, models.OutcomeBackend
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, models.OutcomeBackend
	default:
		return http.StatusBadGateway, models.OutcomeBackend
	}
}

func statusFor(err error) int {
	status, _ := classify(err)
	return status
}

// readError turns a read-side failure into an echo HTTP error.
func readError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(statusFor(err), err.Error())
}

// bindError turns a request decoding failure into a validation error so
// write operations still answer with an Outcome.
func bindError(err error) error {
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return &explorer.ValidationError{Field: "body", Message: "Invalid request: " + msg}
}

// respond writes the Outcome of a write operation.
func respond(c echo.Context, key string, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, models.Outcome{Success: true, Kind: models.OutcomeSuccess, Key: key})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	status, kind := classify(err)
	out := models.Outcome{Kind: kind, Key: key, Error: err.Error()}

	var be *explorer.BatchError
	if errors.As(err, &be) {
		out.Failures = be.Failures
	}
	var re *explorer.RenameError
	if errors.As(err, &re) && re.Partial {
		out.Key = re.NewKey
		out.Failures = []models.Failure{{Key: re.OldKey, Error: re.Err.Error()}}
	}
	return c.JSON(status, out)
}
