package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/djloghub/portfolio-backend/pkg/middleware/logging"
)

// Common is the chain every request passes before admission control.
func Common(logger *slog.Logger, allowOrigins []string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(logger),
		middleware.Secure(),
	}
	if len(allowOrigins) > 0 {
		mw = append(mw, middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}
	return mw
}
