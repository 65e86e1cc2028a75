package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowchart_backend/internal/config"
)

func TestNewRedisClient_Disabled(t *testing.T) {
	t.Parallel()

	rdb, err := NewRedisClient(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	// 127.0.0.1:1 は接続拒否される
	rdb, err := NewRedisClient(context.Background(), config.Redis{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, rdb)
}
