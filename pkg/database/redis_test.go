package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRedisClient_RecoversWhenServerComesBack(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := OpenRedisClient(RedisConfig{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	assert.Error(t, client.Ping(ctx).Err())

	require.NoError(t, mr.Restart())
	assert.NoError(t, client.Ping(ctx).Err())
}
