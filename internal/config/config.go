package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	PresenceTTL     time.Duration
	ShutdownTimeout time.Duration

	WebSocket WebSocketConfig
}

type WebSocketConfig struct {
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
	FrameRate      float64
	FrameBurst     int
}

// PingPeriod must stay below PongWait so the peer answers before the read deadline.
func (c WebSocketConfig) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("presence_ttl", "24h")
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("ws_pong_wait", "60s")
	v.SetDefault("ws_write_wait", "10s")
	v.SetDefault("ws_max_message_size", 512*1024)
	v.SetDefault("ws_send_buffer", 256)
	v.SetDefault("ws_frame_rate", 10.0)
	v.SetDefault("ws_frame_burst", 20)
}

// Load reads .env.local or .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	defaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:            v.GetString("port"),
		Env:             v.GetString("app_env"),
		LogLevel:        v.GetString("log_level"),
		DatabaseURL:     v.GetString("database_url"),
		RedisURL:        v.GetString("redis_url"),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTTTL:          v.GetDuration("jwt_ttl"),
		PresenceTTL:     v.GetDuration("presence_ttl"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		WebSocket: WebSocketConfig{
			PongWait:       v.GetDuration("ws_pong_wait"),
			WriteWait:      v.GetDuration("ws_write_wait"),
			MaxMessageSize: v.GetInt64("ws_max_message_size"),
			SendBuffer:     v.GetInt("ws_send_buffer"),
			FrameRate:      v.GetFloat64("ws_frame_rate"),
			FrameBurst:     v.GetInt("ws_frame_burst"),
		},
	}
}
