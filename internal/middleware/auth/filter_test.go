package authmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djloghub/portfolio-backend/internal/revocation"
	"github.com/djloghub/portfolio-backend/internal/session"
	"github.com/djloghub/portfolio-backend/internal/testutil"
	"github.com/djloghub/portfolio-backend/internal/tokens"
)

type stubSessions struct {
	touched []string
	err     error
}

func (s *stubSessions) GetSession(_ context.Context, id string) (*session.Record, error) {
	s.touched = append(s.touched, id)
	return nil, s.err
}

type filterEnv struct {
	e     *echo.Echo
	codec *tokens.Codec
	rev   *revocation.Store
	sess  *stubSessions
}

func newFilterEnv(t *testing.T) *filterEnv {
	t.Helper()
	codec, err := tokens.NewCodec(testutil.Secret, time.Hour)
	require.NoError(t, err)
	_, rdb := testutil.NewRedis(t)
	rev := revocation.NewStore(rdb, time.Second)
	sess := &stubSessions{}

	e := echo.New()
	e.Use(Filter(Deps{Tokens: codec, Revocations: rev, Sessions: sess}))
	e.GET("/whoami", func(c echo.Context) error {
		id, ok := IdentityFromContext(c.Request().Context())
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, id.Subject)
	})
	e.GET("/private", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireIdentity)

	return &filterEnv{e: e, codec: codec, rev: rev, sess: sess}
}

func (env *filterEnv) get(path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestFilter_AttachesIdentity(t *testing.T) {
	env := newFilterEnv(t)
	token, claims, err := env.codec.Mint("admin")
	require.NoError(t, err)

	rec := env.get("/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
	assert.Equal(t, []string{claims.ID}, env.sess.touched)

	assert.Equal(t, http.StatusOK, env.get("/private", "bearer "+token).Code)
}

func TestFilter_NeverRejects(t *testing.T) {
	env := newFilterEnv(t)
	token, claims, err := env.codec.Mint("admin")
	require.NoError(t, err)
	require.NoError(t, env.rev.Revoke(context.Background(), claims.ID, time.Hour))

	tests := []struct {
		name string
		auth string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic " + token},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer abc.def.ghi"},
		{"revoked", "Bearer " + token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get("/whoami", tt.auth)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "anonymous", rec.Body.String())

			assert.Equal(t, http.StatusUnauthorized, env.get("/private", tt.auth).Code)
		})
	}
	assert.Empty(t, env.sess.touched)
}

func TestFilter_SessionErrorsDoNotMatter(t *testing.T) {
	env := newFilterEnv(t)
	env.sess.err = errors.New("redis down")
	token, _, err := env.codec.Mint("admin")
	require.NoError(t, err)

	assert.Equal(t, "admin", env.get("/whoami", "Bearer "+token).Body.String())

	env.sess.err = session.ErrNotFound
	assert.Equal(t, "admin", env.get("/whoami", "Bearer "+token).Body.String())
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Token abc", "abc"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}
