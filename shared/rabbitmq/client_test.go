package rabbitmq

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disconnectedClient(cfg *Config) *Client {
	return &Client{config: cfg, logger: slog.New(slog.DiscardHandler)}
}

func TestPublishWithRetry_ExhaustsAttempts(t *testing.T) {
	c := disconnectedClient(&Config{
		PublishRetries:     2,
		PublishRetryDelay:  time.Millisecond,
		PublishBackoffMult: 2,
	})

	err := c.PublishWithRetry(context.Background(), []byte(`{}`), "application/json")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestPublishWithRetry_StopsOnContextCancel(t *testing.T) {
	c := disconnectedClient(&Config{
		PublishRetries:    5,
		PublishRetryDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.PublishWithRetry(ctx, []byte(`{}`), "application/json")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "publish canceled after 1 attempts")
}

func TestClient_NotConnected(t *testing.T) {
	c := disconnectedClient(&Config{})

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.SetPrefetch(4), ErrNotConnected)

	_, err := c.Consume("worker-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}
