package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "REDIS_URL", "JWT_TTL", "WS_PONG_WAIT", "WS_FRAME_BURST"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, 54*time.Second, cfg.WebSocket.PingPeriod())
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, 20, cfg.WebSocket.FrameBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("WS_PONG_WAIT", "10s")
	t.Setenv("WS_FRAME_RATE", "2.5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 9*time.Second, cfg.WebSocket.PingPeriod())
	assert.Equal(t, 2.5, cfg.WebSocket.FrameRate)
}
