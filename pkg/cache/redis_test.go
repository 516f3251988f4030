package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "http://not-redis", "")
	assert.Error(t, err)
}

// Runs against a real server when NEXTSTEP_TEST_REDIS_URL is set.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("NEXTSTEP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NEXTSTEP_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "nextstep-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer c.Close()

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", EncodeVector([]float64{1, 2}), time.Minute))
	data, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	v, err := DecodeVector(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, hit, _ = c.Get(ctx, "k")
	assert.False(t, hit)
}
