package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/app"
	"github.com/leonardcser/clockverse/internal/config"
	"github.com/leonardcser/clockverse/internal/logger"
	"github.com/leonardcser/clockverse/internal/transport/httpapi"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	log := logger.Named("server")
	log.Info("starting clockverse", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closer, err := app.OpenStore(ctx, cfg, logger.Named("cache"))
	if err != nil {
		log.Fatal("shared store unavailable", zap.Error(err))
	}
	defer closer.Close()

	svc := app.NewService(cfg, kv, logger.L())
	srv := httpapi.New(cfg.AppAddr, svc, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndRun() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Close(shutdownCtx)
}
