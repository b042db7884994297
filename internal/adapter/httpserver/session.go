package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/countdown/internal/platform/errors"
)

const (
	sessionName     = "countdown-session"
	sessionKeyFlash = "flash"
)

// session returns the visitor's session. A cookie or stored payload that
// cannot be decoded (for example after a secret rotation) yields a fresh
// session. Any other store failure is returned, so the request never saves
// an empty session over values it could not read.
func (s *Server) session(c echo.Context) (*sessions.Session, error) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err == nil {
		return session, nil
	}

	var cookieErr securecookie.Error
	if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
		slog.DebugContext(c.Request().Context(), "Starting fresh session", "error", err)
		return session, nil
	}
	return nil, apperrors.ExternalError("session storage unavailable", err)
}

func (s *Server) saveSession(c echo.Context, session *sessions.Session) error {
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// setFlash stores one message for the next page render, replacing any pending one.
func setFlash(session *sessions.Session, message string) {
	session.Values[sessionKeyFlash] = message
}

// popFlash returns and clears the pending message.
func popFlash(session *sessions.Session) (string, bool) {
	message, ok := session.Values[sessionKeyFlash].(string)
	if !ok {
		return "", false
	}
	delete(session.Values, sessionKeyFlash)
	return message, true
}
