package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/djloghub/portfolio-backend/internal/session"
	"github.com/djloghub/portfolio-backend/internal/tokens"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

type TokenParser interface {
	Parse(token string) (*tokens.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

type SessionToucher interface {
	GetSession(ctx context.Context, tokenID string) (*session.Record, error)
}

type Identity struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

type Deps struct {
	Tokens      TokenParser
	Revocations RevocationChecker
	Sessions    SessionToucher
}

// Filter attaches an Identity to the request context when the bearer token
// verifies and is not revoked. It never rejects a request; routes that need
// an identity use RequireIdentity.
func Filter(d Deps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			claims, err := d.Tokens.Parse(raw)
			if err != nil {
				l.Debug("token_rejected", "reason", "does not verify", "error", err)
				return next(c)
			}
			if d.Revocations.IsRevoked(ctx, claims.ID) {
				l.Info("token_rejected", "reason", "revoked")
				return next(c)
			}

			if d.Sessions != nil {
				if _, err := d.Sessions.GetSession(ctx, claims.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
					l.Warn("session_touch_failed", "error", err)
				}
			}

			id := Identity{Subject: claims.Subject, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, id)))
			return next(c)
		}
	}
}

func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := IdentityFromContext(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}
