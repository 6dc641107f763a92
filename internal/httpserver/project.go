package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/djloghub/portfolio-backend/internal/middleware/auth"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/internal/service"
	"github.com/djloghub/portfolio-backend/internal/transport"
	"github.com/djloghub/portfolio-backend/internal/util"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

type ProjectHTTP struct {
	Svc *service.ProjectService
}

func authenticated(c echo.Context) bool {
	_, ok := authmw.IdentityFromContext(c.Request().Context())
	return ok
}

func (h *ProjectHTTP) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.list")

	status, err := service.ResolveStatusFilter(c.QueryParam("status"), authenticated(c))
	if err != nil {
		l.Warn("list_projects_failed", "status", 400, "reason", "unknown status filter", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status filter")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, status, offset, limit)
	if err != nil {
		l.Error("list_projects_failed", "status", 500, "reason", "cannot read projects", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read projects")
	}

	return c.JSON(http.StatusOK, transport.ProjectListResponse{
		Data: items,
		Meta: util.Meta(page, offset, limit, total),
	})
}

func (h *ProjectHTTP) GetProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_project_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	p, err := h.Svc.Get(ctx, id, authenticated(c))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		l.Error("get_project_failed", "status", 500, "reason", "cannot read project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read project")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHTTP) CreateProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.create")

	var req transport.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_project_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_project_failed", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_project_failed", "status", 500, "reason", "cannot store project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store project")
	}

	l.Info("create_project_success", "project_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectHTTP) PatchProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.patch")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.PatchProjectRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_project_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("patch_project_failed", "status", 500, "reason", "cannot store project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store project")
	}

	l.Info("patch_project_success", "project_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHTTP) DeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "project.delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		l.Error("delete_project_failed", "status", 500, "reason", "cannot delete project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete project")
	}

	l.Info("delete_project_success", "project_id", id)
	return c.NoContent(http.StatusNoContent)
}
