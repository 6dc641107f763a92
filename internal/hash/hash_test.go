package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hashed, err := h.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)

	assert.True(t, h.CheckPassword(hashed, "s3cret"))
	assert.False(t, h.CheckPassword(hashed, "S3cret"))
	assert.False(t, h.CheckPassword("not-a-hash", "s3cret"))
}

func TestHasher_DummyMatchesCost(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	cost, err := bcrypt.Cost(h.dummy)
	require.NoError(t, err)
	assert.Equal(t, h.Cost(), cost)
	assert.False(t, h.CompareDummy("anything"))
}

func TestNewHasher_RejectsBadCost(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
