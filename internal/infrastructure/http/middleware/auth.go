package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims is the JWT payload the control plane accepts, narrowed from the
// teacher's JWTClaims (drops Username/Email/Roles — this API has one
// principal per token, not a user-and-role model) down to what a machine
// client calling POST /graphs or POST /graphs/{id}/runs needs: who issued
// the token.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// AuthConfig configures the JWT bearer-token middleware.
type AuthConfig struct {
	Secret    string
	SkipPaths []string
}

// JWT validates a "Bearer <token>" Authorization header against config.Secret,
// the same HMAC bearer-token check as the teacher's JWT(), with the API-key
// branch dropped (this control plane has no API-key tier).
func JWT(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			for _, skip := range config.SkipPaths {
				if strings.HasPrefix(path, skip) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid signing method")
				}
				return []byte(config.Secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("subject", claims.Subject)
			return next(c)
		}
	}
}
