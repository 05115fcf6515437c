package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders {"error": "<message>"}. Unexpected
// errors are logged with their cause and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, body limit, ...).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	// Auth.
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case domain.IsTokenError(err):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrRoleNotAllowed):
		return http.StatusForbidden, domain.ErrRoleNotAllowed.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, domain.ErrInvalidRole.Error()
	case errors.Is(err, domain.ErrInvalidUserData):
		return http.StatusBadRequest, domain.ErrInvalidUserData.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()

	// Artifact.
	case errors.Is(err, domain.ErrArtifactNotFound):
		return http.StatusNotFound, domain.ErrArtifactNotFound.Error()
	case errors.Is(err, domain.ErrEmptyPayload):
		return http.StatusBadRequest, domain.ErrEmptyPayload.Error()
	case errors.Is(err, domain.ErrBadPayload):
		log.Warn().Err(err).Str("path", c.Path()).Msg("upload body unreadable")
		return http.StatusBadRequest, domain.ErrBadPayload.Error()

	// Prediction.
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusNotFound, "Model not found. Please upload a model first."
	case errors.Is(err, domain.ErrShapeMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInferenceFailure):
		log.Error().Err(err).Str("path", c.Path()).Msg("inference failed")
		return http.StatusInternalServerError, domain.ErrInferenceFailure.Error()

	case errors.Is(err, context.Canceled):
		log.Warn().Err(err).Str("path", c.Path()).Msg("request cancelled by client")
		return http.StatusBadRequest, "request cancelled"
	}

	// ErrIOFailure and anything unexpected: log the real cause only.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
