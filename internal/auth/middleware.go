package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/adaptive-tutor/internal/types"
)

const userContextKey = "user"

// UserLookup loads the account behind a verified token.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*types.User, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user in the echo context.
func RequireUser(issuer *Issuer, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return unauthorized(c, "Token is missing!")
			}

			claims, err := issuer.Verify(raw)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					return unauthorized(c, "Token has expired!")
				}
				slog.Debug("rejected bearer token", "error", err.Error())
				return unauthorized(c, "Token is invalid!")
			}

			user, err := users.GetByEmail(c.Request().Context(), claims.Email)
			if err != nil || user == nil {
				return unauthorized(c, "User not found!")
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c echo.Context) (*types.User, bool) {
	user, ok := c.Get(userContextKey).(*types.User)
	return user, ok && user != nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": message})
}
