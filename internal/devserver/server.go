// Package devserver serves the session-scoped file API over a local
// directory. It backs integration tests and local development of the client.
package devserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config configures a Server.
type Config struct {
	// Root is the local directory exposed as "/".
	Root string
	// Tokens are the accepted session tokens. When empty a random token is
	// generated and reported by Tokens.
	Tokens []string
	// Limits bound a single upload request.
	Limits upload.Limits
	Logger zerolog.Logger
}

// Server is the reference file API.
type Server struct {
	echo   *echo.Echo
	root   string
	tokens map[string]struct{}
	limits upload.Limits
	log    zerolog.Logger
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Root == "" {
		return nil, errors.New("devserver: root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "devserver: resolve root")
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "devserver: stat root")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("devserver: root %s is not a directory", root)
	}

	s := &Server{
		echo:   echo.New(),
		root:   root,
		tokens: map[string]struct{}{},
		limits: cfg.Limits,
		log:    cfg.Logger.With().Str("component", "devserver").Logger(),
	}
	if s.limits == (upload.Limits{}) {
		s.limits = upload.DefaultLimits()
	}
	for _, t := range cfg.Tokens {
		if t != "" {
			s.tokens[t] = struct{}{}
		}
	}
	if len(s.tokens) == 0 {
		s.tokens[uuid.NewString()] = struct{}{}
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogMethod:  true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.log.Debug()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = s.log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := s.echo.Group("/api/connections/:conn", s.requireSession)
	g.GET("/files", s.list)
	g.GET("/files/download", s.download)
	g.POST("/files/download", s.downloadBundle)
	g.POST("/files/rename", s.rename)
	g.POST("/files/mkdir", s.mkdir)
	g.POST("/files/chmod", s.chmod)
	g.POST("/files/upload", s.upload)
	g.POST("/files/search", s.search)
	g.GET("/files/*", s.read)
	g.PUT("/files/*", s.write)
	g.DELETE("/files/*", s.remove)
}

// requireSession rejects requests without an accepted session token.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(remote.SessionHeader)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}
		if _, ok := s.tokens[token]; !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		if c.Param("conn") == "" {
			return echo.NewHTTPError(http.StatusNotFound, "unknown connection")
		}
		return next(c)
	}
}

// handleError writes every failure as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]string{"error": message})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("write error response")
	}
}

// Root returns the served directory.
func (s *Server) Root() string {
	return s.root
}

// Tokens lists the accepted session tokens in a stable order.
func (s *Server) Tokens() []string {
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Handler exposes the router for httptest and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on address until Shutdown.
func (s *Server) Start(address string) error {
	s.log.Info().Str("address", address).Str("root", s.root).Msg("starting file API")
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "devserver: listen")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down file API")
	return s.echo.Shutdown(ctx)
}
