package service

import (
	"context"
	"fmt"

	"github.com/djloghub/portfolio-backend/internal/hash"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

// BootstrapAdmin creates the single admin account on first start. An
// existing account keeps its stored password.
func BootstrapAdmin(ctx context.Context, r *repo.GormRepo, h *hash.Hasher, loginName, password string) error {
	l := logging.FromContext(ctx).With("svc", "bootstrap")
	if loginName == "" {
		l.Info("admin_bootstrap_skipped", "reason", "no admin configured")
		return nil
	}

	pwHash, err := h.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	created, err := r.EnsureAdmin(ctx, loginName, pwHash)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		l.Info("admin_created", "login_name", loginName)
	} else {
		l.Info("admin_exists", "login_name", loginName)
	}
	return nil
}
