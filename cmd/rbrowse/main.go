package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	apppkg "github.com/kk-code-lab/rbrowse/internal/app"
	"github.com/kk-code-lab/rbrowse/internal/config"
	"github.com/kk-code-lab/rbrowse/internal/logger"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/spf13/pflag"
)

const usage = `rbrowse - terminal browser for a remote file API

USAGE:
    rbrowse [OPTIONS]

The session handle comes from --session-connection-id/--session-token,
RBROWSE_SESSION_CONNECTION_ID/RBROWSE_SESSION_TOKEN or the config file.

OPTIONS:
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := config.Flags("rbrowse")
	help := flags.BoolP("help", "h", false, "show this help message and exit")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if *help {
		flags.Usage()
		return 0
	}

	cfg, err := config.Load("", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// The terminal belongs to tcell: logs only go to the file.
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     "json",
		Path:       cfg.Logging.Path,
		FileName:   "rbrowse.log",
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

	client := remote.New(remote.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout,
		Logger:  log.WithComponent("remote"),
	})
	client.SetSession(remote.Session{
		ConnectionID: cfg.Session.ConnectionID,
		Token:        cfg.Session.Token,
	})

	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	app, err := apppkg.NewApplication(apppkg.Options{
		Gateway:     client,
		StartPath:   cfg.Browser.StartPath,
		DownloadDir: cfg.Browser.DownloadDir,
		Limits: upload.Limits{
			MaxFiles:     cfg.Upload.MaxFiles,
			MaxFileSize:  cfg.Upload.MaxFileSize,
			MaxTotalSize: cfg.Upload.MaxTotalSize,
		},
		MaxResults: cfg.Search.MaxResults,
		Debounce:   cfg.Search.Debounce,
		NoticeTTL:  cfg.UI.NoticeTTL,
		Editor:     cfg.UI.Editor,
		Logger:     log.Logger,
	})
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		fmt.Fprintf(os.Stderr, "Error initializing application: %v\n", err)
		return 1
	}

	app.Run()
	_ = app.Close()

	log.Info().Str("path", app.CurrentPath()).Msg("session ended")
	return 0
}
