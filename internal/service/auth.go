package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/djloghub/portfolio-backend/internal/events"
	"github.com/djloghub/portfolio-backend/internal/hash"
	"github.com/djloghub/portfolio-backend/internal/models"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/internal/session"
	"github.com/djloghub/portfolio-backend/internal/tokens"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

var (
	// ErrAuthenticationFailed is the only failure Login reports for bad
	// credentials, whatever the cause.
	ErrAuthenticationFailed = errors.New("invalid login name or password")
	ErrLogoutFailed         = errors.New("logout failed")
)

type CredentialStore interface {
	GetAdminByLoginName(ctx context.Context, loginName string) (*models.Admin, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	RevokeQuietly(ctx context.Context, tokenID string, ttl time.Duration)
}

type SessionStore interface {
	CreateSession(ctx context.Context, username, tokenID string, expiresAt time.Time, client session.ClientInfo) ([]session.Record, error)
	RemoveSession(ctx context.Context, tokenID string) error
	RemoveAllSessions(ctx context.Context, username string) ([]session.Record, error)
	ActiveSessions(ctx context.Context, username string) ([]session.Record, error)
	LoginHistory(ctx context.Context, username string, limit int) ([]session.HistoryEntry, error)
}

type AuthService struct {
	Repo        CredentialStore
	Hasher      *hash.Hasher
	Codec       *tokens.Codec
	Revocations Revoker
	Sessions    SessionStore
	Events      events.Publisher
	Now         func() time.Time
}

type LoginResult struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
	Evicted     int
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the credentials and issues a token. Unknown accounts are
// compared against a dummy hash of the same cost, so both failure paths do
// the same work before branching.
func (s *AuthService) Login(ctx context.Context, loginName, password string, client session.ClientInfo) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	admin, err := s.Repo.GetAdminByLoginName(ctx, loginName)
	var ok bool
	if err == nil {
		ok = s.Hasher.CheckPassword(admin.PasswordHash, password)
	} else {
		ok = s.Hasher.CompareDummy(password)
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("credential_lookup_failed", "error", err)
		}
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		events.Emit(ctx, s.Events, loginName, events.Event{Type: events.LoginFailed, Subject: loginName, ClientIP: client.IP, At: s.now()})
		return nil, ErrAuthenticationFailed
	}

	token, claims, err := s.Codec.Mint(admin.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot mint token", "error", err)
		return nil, fmt.Errorf("mint token: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time

	evicted, err := s.Sessions.CreateSession(ctx, admin.Username, claims.ID, expiresAt, client)
	if err != nil {
		l.Warn("session_register_failed", "error", err)
	}
	now := s.now()
	for _, rec := range evicted {
		s.Revocations.RevokeQuietly(ctx, rec.TokenID, rec.ExpiresAt.Sub(now))
	}
	if len(evicted) > 0 {
		l.Info("sessions_evicted", "count", len(evicted))
	}

	events.Emit(ctx, s.Events, admin.Username, events.Event{Type: events.LoginSucceeded, Subject: admin.Username, ClientIP: client.IP, At: now})
	l.Info("login_successful")

	return &LoginResult{
		AccessToken: token,
		TokenID:     claims.ID,
		ExpiresAt:   expiresAt,
		Evicted:     len(evicted),
	}, nil
}

// Logout revokes token for the rest of its lifetime. A token that does not
// verify cannot authenticate anything, so it is accepted without work.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Codec.Parse(token)
	if err != nil {
		l.Info("logout_noop", "reason", "token does not verify", "error", err)
		return nil
	}

	if err := s.Revocations.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke token", "error", err)
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}
	if err := s.Sessions.RemoveSession(ctx, claims.ID); err != nil {
		l.Warn("session_remove_failed", "error", err)
	}

	events.Emit(ctx, s.Events, claims.Subject, events.Event{Type: events.Logout, Subject: claims.Subject, At: s.now()})
	l.Info("logout_successful")
	return nil
}

// LogoutEverywhere ends every registered session of username and revokes
// their tokens. It returns how many sessions were ended.
func (s *AuthService) LogoutEverywhere(ctx context.Context, username string) (int, error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout_everywhere")

	records, err := s.Sessions.RemoveAllSessions(ctx, username)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot load sessions", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	now := s.now()
	var errs []error
	for _, rec := range records {
		if err := s.Revocations.Revoke(ctx, rec.TokenID, rec.ExpiresAt.Sub(now)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke tokens", "failed", len(errs), "error", err)
		return len(records) - len(errs), fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	events.Emit(ctx, s.Events, username, events.Event{Type: events.SessionsRevoked, Subject: username, At: now, Data: map[string]any{"count": len(records)}})
	l.Info("sessions_revoked", "count", len(records))
	return len(records), nil
}

func (s *AuthService) ActiveSessions(ctx context.Context, username string) ([]session.Record, error) {
	return s.Sessions.ActiveSessions(ctx, username)
}

func (s *AuthService) LoginHistory(ctx context.Context, username string, limit int) ([]session.HistoryEntry, error) {
	return s.Sessions.LoginHistory(ctx, username, limit)
}
