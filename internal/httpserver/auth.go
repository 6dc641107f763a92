package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/djloghub/portfolio-backend/internal/middleware/auth"
	"github.com/djloghub/portfolio-backend/internal/service"
	"github.com/djloghub/portfolio-backend/internal/session"
	"github.com/djloghub/portfolio-backend/internal/transport"
	"github.com/djloghub/portfolio-backend/internal/util"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	client := session.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	res, err := h.Svc.Login(ctx, req.LoginName, req.Password, client)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			return echo.NewHTTPError(http.StatusUnauthorized, service.ErrAuthenticationFailed.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	token, ok := authmw.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		l.Warn("logout_failed", "status", 400, "reason", "missing or malformed authorization header")
		return echo.NewHTTPError(http.StatusBadRequest, "missing or malformed authorization header")
	}

	if err := h.Svc.Logout(ctx, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

func (h *AuthHTTP) Sessions(c echo.Context) error {
	ctx := c.Request().Context()
	id, _ := authmw.IdentityFromContext(ctx)

	records, err := h.Svc.ActiveSessions(ctx, id.Subject)
	if err != nil {
		logging.FromContext(ctx).Error("list_sessions_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "sessions unavailable")
	}

	out := make([]transport.SessionView, 0, len(records))
	for _, r := range records {
		out = append(out, transport.SessionView{
			TokenID:        r.TokenID,
			ClientIP:       r.ClientIP,
			UserAgent:      r.UserAgent,
			LoginTime:      r.LoginTime,
			LastAccessTime: r.LastAccessTime,
			Current:        r.TokenID == id.TokenID,
		})
	}
	return c.JSON(http.StatusOK, transport.SessionsResponse{Sessions: out})
}

func (h *AuthHTTP) LogoutEverywhere(c echo.Context) error {
	ctx := c.Request().Context()
	id, _ := authmw.IdentityFromContext(ctx)

	n, err := h.Svc.LogoutEverywhere(ctx, id.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	return c.JSON(http.StatusOK, transport.LogoutEverywhereResponse{Message: "all sessions ended", Revoked: n})
}

func (h *AuthHTTP) LoginHistory(c echo.Context) error {
	ctx := c.Request().Context()
	id, _ := authmw.IdentityFromContext(ctx)

	limit := util.ParseIntDefault(c.QueryParam("limit"), session.HistoryLimit)
	entries, err := h.Svc.LoginHistory(ctx, id.Subject, limit)
	if err != nil {
		logging.FromContext(ctx).Error("login_history_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "login history unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{"history": entries})
}
