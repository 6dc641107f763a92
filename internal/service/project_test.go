package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djloghub/portfolio-backend/internal/events"
	"github.com/djloghub/portfolio-backend/internal/models"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/internal/testutil"
	"github.com/djloghub/portfolio-backend/internal/transport"
)

func newProjectService(t *testing.T) (*ProjectService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &ProjectService{Repo: &repo.GormRepo{DB: testutil.InitTestDB(t)}, Events: pub}, pub
}

func TestResolveStatusFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		requested string
		authed    bool
		want      models.ProjectStatus
		wantErr   bool
	}{
		{"", false, models.StatusPublished, false},
		{"published", false, models.StatusPublished, false},
		{"all", false, models.StatusPublished, false},
		{"ALL", true, "", false},
		{"draft", false, models.StatusPublished, false},
		{"draft", true, models.StatusDraft, false},
		{"archived", true, "", true},
	}
	for _, tt := range tests {
		got, err := ResolveStatusFilter(tt.requested, tt.authed)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrValidation, tt.requested)
			continue
		}
		require.NoError(t, err, tt.requested)
		assert.Equal(t, tt.want, got, "%s authed=%v", tt.requested, tt.authed)
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	svc, pub := newProjectService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, transport.CreateProjectRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, transport.CreateProjectRequest{Title: strings.Repeat("x", maxTitleLen+1)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, transport.CreateProjectRequest{Title: "ok", Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.Create(ctx, transport.CreateProjectRequest{Title: "  site  "})
	require.NoError(t, err)
	assert.Equal(t, "site", p.Title)
	assert.Equal(t, models.StatusDraft, p.Status)
	assert.Equal(t, []string{events.ProjectCreated}, pub.types())
}

func TestProjectService_GetHidesDraftsFromAnonymous(t *testing.T) {
	svc, _ := newProjectService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, transport.CreateProjectRequest{Title: "wip"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID, false)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err := svc.Get(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestProjectService_PatchAndDelete(t *testing.T) {
	svc, pub := newProjectService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, transport.CreateProjectRequest{Title: "site"})
	require.NoError(t, err)

	bad := models.ProjectStatus("gone")
	_, err = svc.Patch(ctx, p.ID, transport.PatchProjectRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	published := models.StatusPublished
	patched, err := svc.Patch(ctx, p.ID, transport.PatchProjectRequest{Status: &published})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, patched.Status)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), repo.ErrNotFound)

	assert.Equal(t, []string{events.ProjectCreated, events.ProjectUpdated, events.ProjectDeleted}, pub.types())
}
