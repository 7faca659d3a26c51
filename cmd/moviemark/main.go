package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"moviemark/internal/client"
	"moviemark/internal/config"
	"moviemark/internal/container"
	"moviemark/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	err := godotenv.Load(".env.local")
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}
	logger.ReloadLevel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerConfig{
		Output:    os.Stdout,
		Logger:    log,
		API:       client.New(config.APIURL(), nil),
		OpenStore: container.NewStore,
		OpenProxy: container.NewProxy,
	})

	if err := runner.App().Run(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("moviemark failed")
	}
}
