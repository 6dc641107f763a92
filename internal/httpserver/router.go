package httpserver

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authmw "github.com/djloghub/portfolio-backend/internal/middleware/auth"
	"github.com/djloghub/portfolio-backend/internal/ratelimit"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ProjectHandler *ProjectHTTP
	HealthHandler  *HealthHTTP
	Limiter        *ratelimit.Limiter
	Filter         authmw.Deps
	Logger         *slog.Logger
	AllowOrigins   []string
}

// New builds the echo instance with the full admission chain in front of
// every route.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(Common(d.Logger, d.AllowOrigins)...)
	e.Use(
		ratelimit.Middleware(d.Limiter, func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/health/")
		}),
		authmw.Filter(d.Filter),
	)

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	auth := e.Group("/api/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)

	private := auth.Group("", authmw.RequireIdentity)
	private.GET("/sessions", d.AuthHandler.Sessions)
	private.DELETE("/sessions", d.AuthHandler.LogoutEverywhere)
	private.GET("/login-history", d.AuthHandler.LoginHistory)

	projects := e.Group("/api/projects")
	projects.GET("", d.ProjectHandler.ListProjects)
	projects.GET("/:id", d.ProjectHandler.GetProject)

	admin := projects.Group("", authmw.RequireIdentity)
	admin.POST("", d.ProjectHandler.CreateProject)
	admin.PATCH("/:id", d.ProjectHandler.PatchProject)
	admin.DELETE("/:id", d.ProjectHandler.DeleteProject)
}
