package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/config"
	"github.com/kk-code-lab/rbrowse/internal/devserver"
	"github.com/kk-code-lab/rbrowse/internal/logger"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := config.Flags("rbrowse-devserver")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load("", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Console:    os.Stdout,
		Path:       cfg.Logging.Path,
		FileName:   "rbrowse-devserver.log",
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Close()
	}()

	srv, err := devserver.New(devserver.Config{
		Root:   cfg.Devserver.Root,
		Tokens: cfg.Devserver.Tokens,
		Limits: upload.Limits{
			MaxFiles:     cfg.Upload.MaxFiles,
			MaxFileSize:  cfg.Upload.MaxFileSize,
			MaxTotalSize: cfg.Upload.MaxTotalSize,
		},
		Logger: log.WithComponent("devserver"),
	})
	if err != nil {
		log.Error().Err(err).Msg("devserver setup failed")
		return 1
	}

	log.Info().
		Str("listen", cfg.Devserver.Listen).
		Str("root", srv.Root()).
		Strs("tokens", srv.Tokens()).
		Msg("serving")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Devserver.Listen)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
			return 1
		}
		return 0
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return 1
	}
	return 0
}
