// Package customtimer keeps the visitor's own timers inside their session.
//
// The list is append-only for the lifetime of the session. Writes go into the
// session values; the caller saves the session to make them durable. Two
// concurrent requests from the same browser can overwrite each other's append.
package customtimer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/pscheid92/countdown/internal/domain"
)

// MaxPerSession is how many custom timers one session may hold.
const MaxPerSession = 2

const sessionKeyTimers = "custom_timers"

// Store reads and writes the custom timers kept in a visitor's session.
// It holds no state of its own; saving the session is up to the caller.
type Store struct {
	limit int
}

// NewStore creates a store allowing at most limit timers per session.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// Limit returns the maximum number of timers per session.
func (s *Store) Limit() int {
	return s.limit
}

// List returns the session's timers in creation order.
func (s *Store) List(session *sessions.Session) []domain.CustomTimer {
	raw, ok := session.Values[sessionKeyTimers].(string)
	if !ok || raw == "" {
		return nil
	}

	var timers []domain.CustomTimer
	if err := json.Unmarshal([]byte(raw), &timers); err != nil {
		slog.Warn("Discarding unreadable custom timers in session", "session", session.Name(), "error", err)
		return nil
	}
	return timers
}

// Full reports whether another timer would exceed the limit.
func (s *Store) Full(session *sessions.Session) bool {
	return len(s.List(session)) >= s.limit
}

// Add appends timer to the session. It fails with domain.ErrLimitExceeded
// and leaves the session untouched when the limit is already reached.
func (s *Store) Add(session *sessions.Session, timer domain.CustomTimer) error {
	timers := s.List(session)
	if len(timers) >= s.limit {
		return domain.ErrLimitExceeded
	}

	encoded, err := json.Marshal(append(timers, timer))
	if err != nil {
		return fmt.Errorf("failed to encode custom timers: %w", err)
	}
	session.Values[sessionKeyTimers] = string(encoded)
	return nil
}

// FindByID returns the timer with the given id. A missing timer is an
// expected case (expired or foreign session) and reported via ok.
func (s *Store) FindByID(session *sessions.Session, id string) (domain.CustomTimer, bool) {
	for _, t := range s.List(session) {
		if t.ID == id {
			return t, true
		}
	}
	return domain.CustomTimer{}, false
}
