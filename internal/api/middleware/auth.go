package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/metrics"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

// AuthContextKey is the echo context key holding the verified domain.AuthContext.
const AuthContextKey = "auth"

// Auth verifies the bearer token and stores the resulting AuthContext on the
// echo context. A missing or ill-formed header is a 401; a token that fails
// verification is a 403. The wrapped handler only runs on success.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			}

			auth, err := verifier.Verify(token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				return echo.NewHTTPError(http.StatusForbidden, tokenMessage(err))
			}

			c.Set(AuthContextKey, auth)

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrExpired):
		return domain.ErrExpired.Error()
	case errors.Is(err, domain.ErrInvalidSignature):
		return domain.ErrInvalidSignature.Error()
	default:
		return domain.ErrMalformed.Error()
	}
}
