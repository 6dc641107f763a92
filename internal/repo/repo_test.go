package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djloghub/portfolio-backend/internal/models"
	"github.com/djloghub/portfolio-backend/internal/testutil"
	"github.com/djloghub/portfolio-backend/internal/transport"
)

func newRepo(t *testing.T) *GormRepo {
	return &GormRepo{DB: testutil.InitTestDB(t)}
}

func TestEnsureAdmin_CreatesOnceAndKeepsHash(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	created, err := r.EnsureAdmin(ctx, "admin", "hash-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.EnsureAdmin(ctx, "admin", "hash-2")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := r.GetAdminByLoginName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", admin.PasswordHash)
	assert.NotEqual(t, uuid.Nil, admin.ID)
}

func TestEnsureAdmin_KeepsExistingRow(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	existing := models.Admin{ID: uuid.New(), Username: "admin", PasswordHash: "seeded"}
	require.NoError(t, r.DB.WithContext(ctx).Create(&existing).Error)

	for i := 0; i < 2; i++ {
		created, err := r.EnsureAdmin(ctx, "admin", "other")
		require.NoError(t, err)
		assert.False(t, created)
	}

	var count int64
	require.NoError(t, r.DB.Model(&models.Admin{}).Where("username = ?", "admin").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	admin, err := r.GetAdminByLoginName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, admin.ID)
	assert.Equal(t, "seeded", admin.PasswordHash)
}

func TestGetAdminByLoginName_NotFound(t *testing.T) {
	r := newRepo(t)

	_, err := r.GetAdminByLoginName(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjects_CRUD(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	p, err := r.CreateProject(ctx, &models.Project{Title: "site", Status: models.StatusDraft})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := r.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "site", got.Title)

	title := "portfolio site"
	status := models.StatusPublished
	patched, err := r.PatchProject(ctx, p.ID, transport.PatchProjectRequest{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, title, patched.Title)
	assert.Equal(t, models.StatusPublished, patched.Status)

	require.NoError(t, r.DeleteProject(ctx, p.ID))
	assert.ErrorIs(t, r.DeleteProject(ctx, p.ID), ErrNotFound)

	_, err = r.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.PatchProject(ctx, uuid.New(), transport.PatchProjectRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProjects_StatusFilterAndPaging(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, st := range []models.ProjectStatus{models.StatusPublished, models.StatusDraft, models.StatusPublished, models.StatusPublished} {
		_, err := r.CreateProject(ctx, &models.Project{
			Title:     "p",
			Status:    st,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	total, items, err := r.ListProjects(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, items, 4)

	total, items, err = r.ListProjects(ctx, models.StatusPublished, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))
	for _, it := range items {
		assert.Equal(t, models.StatusPublished, it.Status)
	}
}
