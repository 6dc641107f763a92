package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "session:"
	userPrefix    = "user_sessions:"
	historyPrefix = "login_history:"

	HistoryLimit = 100
	HistoryTTL   = 30 * 24 * time.Hour
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrUnavailable = errors.New("session store unavailable")
)

type ClientInfo struct {
	IP        string
	UserAgent string
}

type Record struct {
	Username       string    `json:"username"`
	TokenID        string    `json:"tokenId"`
	ClientIP       string    `json:"clientIp"`
	UserAgent      string    `json:"userAgent"`
	LoginTime      time.Time `json:"loginTime"`
	LastAccessTime time.Time `json:"lastAccessTime"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

type Config struct {
	TTL         time.Duration
	MaxSessions int
	Timeout     time.Duration
}

// Registry tracks live sessions per user in Redis and keeps each user at or
// below MaxSessions. The cap is enforced after the write, so concurrent
// logins for one user can briefly exceed it.
type Registry struct {
	rdb redis.Cmdable
	cfg Config
	now func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(rdb redis.Cmdable, cfg Config, opts ...Option) *Registry {
	r := &Registry{rdb: rdb, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func sessionKey(tokenID string) string  { return sessionPrefix + tokenID }
func userKey(username string) string    { return userPrefix + username }
func historyKey(username string) string { return historyPrefix + username }

func (r *Registry) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.Timeout)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// CreateSession stores the session and its index entry atomically, then
// evicts the least recently used sessions above the cap and appends a login
// history entry. The evicted records are returned even when a later step
// failed; errors from those later steps are joined into the returned error.
func (r *Registry) CreateSession(ctx context.Context, username, tokenID string, expiresAt time.Time, client ClientInfo) ([]Record, error) {
	now := r.now()
	rec := Record{
		Username:       username,
		TokenID:        tokenID,
		ClientIP:       client.IP,
		UserAgent:      client.UserAgent,
		LoginTime:      now,
		LastAccessTime: now,
		ExpiresAt:      expiresAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	wctx, cancel := r.bound(ctx)
	_, err = r.rdb.TxPipelined(wctx, func(p redis.Pipeliner) error {
		p.Set(wctx, sessionKey(tokenID), data, r.cfg.TTL)
		p.SAdd(wctx, userKey(username), tokenID)
		p.Expire(wctx, userKey(username), r.cfg.TTL)
		return nil
	})
	cancel()
	if err != nil {
		return nil, unavailable(err)
	}

	var errs []error
	evicted, err := r.enforceCap(ctx, username)
	if err != nil {
		errs = append(errs, fmt.Errorf("enforce session cap: %w", err))
	}
	if err := r.appendHistory(ctx, username, HistoryEntry{Timestamp: now, ClientIP: client.IP, UserAgent: client.UserAgent}); err != nil {
		errs = append(errs, fmt.Errorf("append login history: %w", err))
	}
	return evicted, errors.Join(errs...)
}

func (r *Registry) enforceCap(ctx context.Context, username string) ([]Record, error) {
	records, err := r.load(ctx, username)
	if err != nil {
		return nil, err
	}
	excess := len(records) - r.cfg.MaxSessions
	if excess <= 0 {
		return nil, nil
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.LastAccessTime.Equal(b.LastAccessTime) {
			return a.LastAccessTime.Before(b.LastAccessTime)
		}
		if !a.LoginTime.Equal(b.LoginTime) {
			return a.LoginTime.Before(b.LoginTime)
		}
		return a.TokenID < b.TokenID
	})
	evicted := records[:excess]

	wctx, cancel := r.bound(ctx)
	defer cancel()
	_, err = r.rdb.TxPipelined(wctx, func(p redis.Pipeliner) error {
		for _, rec := range evicted {
			p.Del(wctx, sessionKey(rec.TokenID))
			p.SRem(wctx, userKey(username), rec.TokenID)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return evicted, nil
}

// load returns the live records indexed for username and drops index
// entries whose record has already expired.
func (r *Registry) load(ctx context.Context, username string) ([]Record, error) {
	rctx, cancel := r.bound(ctx)
	defer cancel()

	ids, err := r.rdb.SMembers(rctx, userKey(username)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	vals, err := r.rdb.MGet(rctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	records := make([]Record, 0, len(ids))
	var stale []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		records = append(records, rec)
	}
	if len(stale) > 0 {
		if err := r.rdb.SRem(rctx, userKey(username), stale...).Err(); err != nil {
			return nil, unavailable(err)
		}
	}
	return records, nil
}

func (r *Registry) appendHistory(ctx context.Context, username string, e HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	wctx, cancel := r.bound(ctx)
	defer cancel()

	_, err = r.rdb.Pipelined(wctx, func(p redis.Pipeliner) error {
		p.LPush(wctx, historyKey(username), data)
		p.LTrim(wctx, historyKey(username), 0, HistoryLimit-1)
		p.Expire(wctx, historyKey(username), HistoryTTL)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// GetSession returns the record for tokenID and marks it accessed now,
// which also restarts its TTL.
func (r *Registry) GetSession(ctx context.Context, tokenID string) (*Record, error) {
	rctx, cancel := r.bound(ctx)
	defer cancel()

	data, err := r.rdb.Get(rctx, sessionKey(tokenID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	rec.LastAccessTime = r.now()

	updated, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	// XX keeps a concurrent removal from being undone.
	ok, err := r.rdb.SetXX(rctx, sessionKey(tokenID), updated, r.cfg.TTL).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	if err := r.rdb.Expire(rctx, userKey(rec.Username), r.cfg.TTL).Err(); err != nil {
		return nil, unavailable(err)
	}
	return &rec, nil
}

// RemoveSession deletes the session and its index entry. A missing session
// is not an error.
func (r *Registry) RemoveSession(ctx context.Context, tokenID string) error {
	rctx, cancel := r.bound(ctx)
	defer cancel()

	data, err := r.rdb.Get(rctx, sessionKey(tokenID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return unavailable(err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return r.rdb.Del(rctx, sessionKey(tokenID)).Err()
	}

	_, err = r.rdb.TxPipelined(rctx, func(p redis.Pipeliner) error {
		p.Del(rctx, sessionKey(tokenID))
		p.SRem(rctx, userKey(rec.Username), tokenID)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// RemoveAllSessions deletes every session of username and returns the
// records that were live.
func (r *Registry) RemoveAllSessions(ctx context.Context, username string) ([]Record, error) {
	records, err := r.load(ctx, username)
	if err != nil {
		return nil, err
	}

	wctx, cancel := r.bound(ctx)
	defer cancel()
	_, err = r.rdb.TxPipelined(wctx, func(p redis.Pipeliner) error {
		for _, rec := range records {
			p.Del(wctx, sessionKey(rec.TokenID))
		}
		p.Del(wctx, userKey(username))
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return records, nil
}

// ActiveSessions lists live sessions, most recent login first, without
// touching their access times.
func (r *Registry) ActiveSessions(ctx context.Context, username string) ([]Record, error) {
	records, err := r.load(ctx, username)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LoginTime.After(records[j].LoginTime)
	})
	return records, nil
}

// LoginHistory returns up to limit entries, newest first. A limit outside
// 1..HistoryLimit returns everything kept.
func (r *Registry) LoginHistory(ctx context.Context, username string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rctx, cancel := r.bound(ctx)
	defer cancel()

	raw, err := r.rdb.LRange(rctx, historyKey(username), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]HistoryEntry, 0, len(raw))
	for _, s := range raw {
		var e HistoryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
