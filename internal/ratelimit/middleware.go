package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/djloghub/portfolio-backend/pkg/logging"
)

type rejection struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var tooMany = rejection{
	Error:   "Rate limit exceeded",
	Message: "Too many requests. Please try again later.",
}

// Middleware rejects clients over the limit with 429 before any later
// handler runs. Clients are keyed by echo's RealIP, which trusts
// X-Forwarded-For and X-Real-IP; behind no proxy those headers are client
// controlled and the key can be forged.
func Middleware(l *Limiter, skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			key := c.RealIP()
			d := l.Decide(key)
			if d.Allowed {
				c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
				return next(c)
			}

			logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", http.StatusTooManyRequests, "client", key)
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, tooMany)
		}
	}
}
