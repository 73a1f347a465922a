package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/thereayou/jobchat/internal/config"
	"github.com/thereayou/jobchat/internal/log"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.Env, cfg.LogLevel)
	logger := log.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("server init failed")
	}

	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("server run error")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"chat-server": func(ctx context.Context) error {
				logger.Info().Msg("graceful shutdown initiated")
				cancel()
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info().Int("code", exitCode).Msg("server exited")
	os.Exit(exitCode)
}
