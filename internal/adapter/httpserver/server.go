package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countdown/internal/adapter/blob"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/app"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/pscheid92/countdown/internal/platform/config"
	"github.com/pscheid92/countdown/web"
)

type appService interface {
	TrendingTimers() []domain.TrendingTimer
	TrendingTimer(id string) (domain.TrendingTimer, error)
	CustomTimers(session *sessions.Session) []domain.CustomTimer
	CustomTimer(session *sessions.Session, id string) (app.CustomTimerView, error)
	CreateCustomTimer(ctx context.Context, session *sessions.Session, req app.CreateCustomTimerRequest) (domain.CustomTimer, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	sessionStore sessions.Store
	// localFiles is set only for the local blob backend; it enables /uploads.
	localFiles *blob.LocalStore

	templates *template.Template

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	startTime      time.Time
}

// Deps bundles the collaborators of the HTTP server. LocalFiles, HTTPMetrics
// and MetricsHandler are optional.
type Deps struct {
	App            appService
	SessionStore   sessions.Store
	LocalFiles     *blob.LocalStore
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	HealthChecks   []HealthCheck
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            deps.App,
		sessionStore:   deps.SessionStore,
		localFiles:     deps.LocalFiles,
		templates:      templates,
		httpMetrics:    deps.HTTPMetrics,
		metricsHandler: deps.MetricsHandler,
		healthChecks:   deps.HealthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// NewCookieSessionStore builds the default session store: all values live in
// a signed cookie.
func NewCookieSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = SessionOptions(cfg)
	return store
}

// SessionOptions returns the cookie options shared by every session store.
func SessionOptions(cfg *config.Config) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}
