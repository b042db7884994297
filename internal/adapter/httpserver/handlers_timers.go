package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/countdown/internal/app"
	"github.com/pscheid92/countdown/internal/customtimer"
	"github.com/pscheid92/countdown/internal/domain"
	apperrors "github.com/pscheid92/countdown/internal/platform/errors"
	"github.com/pscheid92/countdown/internal/upload"
)

const (
	// uploadBodyLimit caps the whole multipart body, form fields included.
	uploadBodyLimit = "5M"
	// multipartMemory is how much of a multipart body is kept in memory before
	// spilling to temporary files.
	multipartMemory = 1 << 20

	rateLimitedMessage = "Too many submissions. Please wait a moment and try again."

	maxCustomTimers = customtimer.MaxPerSession

	customTimerTheme = "theme-custom"
)

func (s *Server) registerTimerRoutes(csrfMiddleware echo.MiddlewareFunc) {
	limiter := newRateLimiter(s.config.UploadRateLimit, s.config.UploadRateBurst, s.handleRateLimited)

	s.echo.GET("/", s.handleLanding, csrfMiddleware)
	s.echo.GET("/timer/trending/:id", s.handleTrendingTimer)
	s.echo.GET("/timer/custom/:id", s.handleCustomTimer)
	s.echo.POST("/timer/custom", s.handleCreateCustomTimer, limiter, middleware.BodyLimit(uploadBodyLimit), csrfMiddleware)
}

func (s *Server) handleLanding(c echo.Context) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	flash, hadFlash := popFlash(session)
	if hadFlash {
		if err := s.saveSession(c, session); err != nil {
			return apperrors.InternalError("failed to clear flash message", err)
		}
	}

	customTimers := s.app.CustomTimers(session)
	data := map[string]any{
		"TrendingTimers": s.app.TrendingTimers(),
		"CustomTimers":   customTimers,
		"CustomLimit":    maxCustomTimers,
		"CanAddCustom":   len(customTimers) < maxCustomTimers,
		"Flash":          flash,
		"CSRFToken":      csrfToken(c),
		"AllowedTypes":   upload.AllowedExtensions,
	}
	return s.renderTemplate(c, "landing.html", data)
}

func (s *Server) handleTrendingTimer(c echo.Context) error {
	id := c.Param("id")

	timer, err := s.app.TrendingTimer(id)
	if errors.Is(err, domain.ErrTimerNotFound) {
		return apperrors.NotFoundError("timer not found").WithContext("timer_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to resolve timer", err).WithContext("timer_id", id)
	}

	data := map[string]any{
		"Name":          timer.Name,
		"Target":        timer.Target(),
		"Theme":         timer.Theme,
		"BackgroundURL": "",
	}
	return s.renderTemplate(c, "timer.html", data)
}

func (s *Server) handleCustomTimer(c echo.Context) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	timer, err := s.app.CustomTimer(session, c.Param("id"))
	if errors.Is(err, domain.ErrTimerNotFound) {
		return s.redirectWithFlash(c, session, app.UserMessage(err))
	}
	if err != nil {
		return apperrors.InternalError("failed to load custom timer", err)
	}

	data := map[string]any{
		"Name":          timer.Name,
		"Target":        timer.Target(),
		"Theme":         customTimerTheme,
		"BackgroundURL": timer.BackgroundURL,
	}
	return s.renderTemplate(c, "timer.html", data)
}

// customTimerResponse is the JSON body returned to AJAX submissions.
type customTimerResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"target_date"`
	URL        string `json:"url"`
}

// handleCreateCustomTimer accepts the custom timer form. Browsers get a flash
// message and a redirect to the landing page; AJAX callers get JSON.
func (s *Server) handleCreateCustomTimer(c echo.Context) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	req, err := readCustomTimerForm(c)
	if closer, ok := req.File.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	if err == nil {
		var timer domain.CustomTimer
		timer, err = s.app.CreateCustomTimer(c.Request().Context(), session, req)
		if err == nil {
			return s.customTimerCreated(c, session, timer)
		}
	}

	if isAJAX(c) {
		return toAPIError(err)
	}
	return s.redirectWithFlash(c, session, app.UserMessage(err))
}

func (s *Server) customTimerCreated(c echo.Context, session *sessions.Session, timer domain.CustomTimer) error {
	if err := s.saveSession(c, session); err != nil {
		return apperrors.InternalError("failed to save custom timer", err)
	}

	if isAJAX(c) {
		resp := customTimerResponse{
			ID:         timer.ID,
			Name:       timer.Name,
			TargetDate: timer.Target(),
			URL:        "/timer/custom/" + timer.ID,
		}
		if err := c.JSON(http.StatusCreated, resp); err != nil {
			return fmt.Errorf("failed to write custom timer response: %w", err)
		}
		return nil
	}

	if err := c.Redirect(http.StatusFound, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleRateLimited(c echo.Context, _ string, _ error) error {
	if isAJAX(c) {
		if err := c.JSON(http.StatusTooManyRequests, apperrors.ErrorResponse{Error: rateLimitedMessage, Type: apperrors.TypeValidation}); err != nil {
			return fmt.Errorf("failed to write rate limit response: %w", err)
		}
		return nil
	}
	session, err := s.session(c)
	if err != nil {
		return err
	}
	return s.redirectWithFlash(c, session, rateLimitedMessage)
}

func (s *Server) redirectWithFlash(c echo.Context, session *sessions.Session, message string) error {
	setFlash(session, message)
	if err := s.saveSession(c, session); err != nil {
		return apperrors.InternalError("failed to save flash message", err)
	}
	if err := c.Redirect(http.StatusFound, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// readCustomTimerForm decodes the multipart submission. An unreadable body is
// reported as too large when the body limit tripped and as a missing image
// otherwise.
func readCustomTimerForm(c echo.Context) (app.CreateCustomTimerRequest, error) {
	r := c.Request()
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return app.CreateCustomTimerRequest{}, domain.ErrFileTooLarge
		}
		return app.CreateCustomTimerRequest{}, domain.ErrNoFile
	}

	req := app.CreateCustomTimerRequest{Time: r.FormValue("time")}
	if names, ok := r.Form["name"]; ok && len(names) > 0 {
		req.Name, req.HasName = names[0], true
	}

	file, header, err := r.FormFile("background")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return app.CreateCustomTimerRequest{}, domain.ErrNoFile
	default:
		req.File = file
		req.Filename = header.Filename
	}
	return req, nil
}

func isAJAX(c echo.Context) bool {
	return c.Request().Header.Get(echo.HeaderXRequestedWith) == echo.XMLHttpRequest
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// toAPIError maps use case errors onto structured errors for JSON callers.
func toAPIError(err error) error {
	message := app.UserMessage(err)
	switch {
	case domain.IsValidation(err):
		return apperrors.ValidationError(message).WithCause(err)
	case errors.Is(err, domain.ErrLimitExceeded):
		return apperrors.ConflictError(message).WithCause(err)
	case errors.Is(err, domain.ErrTimerNotFound):
		return apperrors.NotFoundError(message).WithCause(err)
	case errors.Is(err, domain.ErrStorageFailure):
		return apperrors.ExternalError(message, err)
	default:
		return apperrors.InternalError(message, err)
	}
}
