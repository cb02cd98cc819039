package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"ContentCurator/internal/domain"
)

const bearerPrefix = "Bearer "

// BearerAuth guards trigger endpoints with a shared secret passed as a bearer token.
// An empty secret rejects every request with a configuration error.
func BearerAuth(secret string) echo.MiddlewareFunc {
	secretBytes := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(secretBytes) == 0 {
				return echo.NewHTTPError(http.StatusInternalServerError, domain.ErrTriggerNotConfigured.Error())
			}
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			provided := []byte(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
			if len(provided) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if subtle.ConstantTimeCompare(provided, secretBytes) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid bearer token")
			}
			return next(c)
		}
	}
}
