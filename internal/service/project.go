package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/djloghub/portfolio-backend/internal/events"
	"github.com/djloghub/portfolio-backend/internal/models"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/internal/transport"
)

var ErrValidation = errors.New("validation failed")

const (
	StatusFilterPublished = "published"
	StatusFilterDraft     = "draft"
	StatusFilterAll       = "all"

	maxTitleLen = 200
)

type ProjectService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// ResolveStatusFilter maps the requested listing filter to a repository
// status, where "" lists everything. Anonymous callers only ever get
// published projects.
func ResolveStatusFilter(requested string, authenticated bool) (models.ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "", StatusFilterPublished:
		return models.StatusPublished, nil
	case StatusFilterAll:
		if !authenticated {
			return models.StatusPublished, nil
		}
		return "", nil
	case StatusFilterDraft:
		if !authenticated {
			return models.StatusPublished, nil
		}
		return models.StatusDraft, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, requested)
	}
}

func (s *ProjectService) List(ctx context.Context, status models.ProjectStatus, offset, limit int) (int64, []models.Project, error) {
	return s.Repo.ListProjects(ctx, status, offset, limit)
}

// Get hides drafts from anonymous callers by reporting them as missing.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID, authenticated bool) (*models.Project, error) {
	p, err := s.Repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authenticated && p.Status != models.StatusPublished {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, req transport.CreateProjectRequest) (*models.Project, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	p, err := s.Repo.CreateProject(ctx, &models.Project{
		Title:       title,
		Description: req.Description,
		Status:      status,
	})
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, p.ID.String(), events.Event{Type: events.ProjectCreated, Data: map[string]any{"projectId": p.ID, "title": p.Title}})
	return p, nil
}

func (s *ProjectService) Patch(ctx context.Context, id uuid.UUID, req transport.PatchProjectRequest) (*models.Project, error) {
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if err := validateTitle(t); err != nil {
			return nil, err
		}
		req.Title = &t
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
	}

	p, err := s.Repo.PatchProject(ctx, id, req)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, p.ID.String(), events.Event{Type: events.ProjectUpdated, Data: map[string]any{"projectId": p.ID, "status": p.Status}})
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.Events, id.String(), events.Event{Type: events.ProjectDeleted, Data: map[string]any{"projectId": id}})
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title longer than %d", ErrValidation, maxTitleLen)
	}
	return nil
}
