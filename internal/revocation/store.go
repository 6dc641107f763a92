package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/djloghub/portfolio-backend/pkg/logging"
)

const keyPrefix = "jwt:blacklist:"

var ErrUnavailable = errors.New("revocation store unavailable")

// Store is a Redis-backed deny list of token ids. Entries expire together
// with the token they revoke and are never deleted explicitly.
type Store struct {
	rdb     redis.Cmdable
	timeout time.Duration
}

func NewStore(rdb redis.Cmdable, timeout time.Duration) *Store {
	return &Store{rdb: rdb, timeout: timeout}
}

// Key derives the Redis key for a token id. The id itself never appears in
// the key.
func Key(tokenID string) string {
	sum := sha256.Sum256([]byte(tokenID))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Revoke marks tokenID revoked for ttl. A non-positive ttl means the token
// has already expired and nothing is written. Repeated calls are harmless.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, Key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// RevokeQuietly is Revoke for best-effort callers; a failure is logged only.
func (s *Store) RevokeQuietly(ctx context.Context, tokenID string, ttl time.Duration) {
	if err := s.Revoke(ctx, tokenID, ttl); err != nil {
		logging.FromContext(ctx).Error("token_revoke_failed", "error", err)
	}
}

// IsRevoked reports whether tokenID is on the deny list.
//
// It fails open: when Redis cannot be reached the token is treated as not
// revoked and the error is logged. An outage therefore lets revoked but
// unexpired tokens through until they expire, in exchange for the API
// staying available.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.rdb.Exists(ctx, Key(tokenID)).Result()
	if err != nil {
		logging.FromContext(ctx).LogAttrs(ctx, slog.LevelError, "revocation_check_failed",
			slog.String("reason", "store unreachable, failing open"),
			slog.String("error", err.Error()),
		)
		return false
	}
	return n > 0
}
