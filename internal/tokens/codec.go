package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const MinKeyBytes = 32

var (
	ErrKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", MinKeyBytes)

	// ErrTokenInvalid is wrapped by every Parse failure.
	ErrTokenInvalid     = errors.New("invalid token")
	ErrMalformed        = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrExpired          = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrUnsupported      = fmt.Errorf("%w: unsupported algorithm", ErrTokenInvalid)
)

type Claims struct {
	jwt.RegisteredClaims
}

// Remaining is how long the token stays valid after now. It is never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Time.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Codec mints and verifies HS256 access tokens.
type Codec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(key []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	c := &Codec{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint issues a token for subject with a fresh random token id.
func (c *Codec) Mint(subject string) (string, Claims, error) {
	if subject == "" {
		return "", Claims{}, errors.New("empty subject")
	}
	now := c.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature and the expiry. Every failure wraps
// ErrTokenInvalid together with one of the finer kinds.
func (c *Codec) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := c.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing sub or jti", ErrMalformed)
	}
	return &claims, nil
}

func (c *Codec) TokenID(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnsupported):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
