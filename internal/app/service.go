package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/catalog"
	"github.com/pscheid92/countdown/internal/customtimer"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/pscheid92/countdown/internal/upload"
)

// MaxNameLength is the longest accepted custom timer name, in characters.
const MaxNameLength = 100

// DefaultTimerName is used when the form carries no name field at all.
const DefaultTimerName = "Custom Timer"

// CreateCustomTimerRequest is a decoded custom timer form submission.
type CreateCustomTimerRequest struct {
	Name string
	// HasName is false when the form had no name field.
	HasName  bool
	Time     string
	Filename string
	// File is nil when the form had no background part.
	File io.Reader
}

// CustomTimerView is a custom timer together with its resolved background URL.
type CustomTimerView struct {
	domain.CustomTimer
	BackgroundURL string
}

// Service orchestrates trending and custom timer use cases on top of the
// catalog, the per-session timer store and the upload gateway.
type Service struct {
	catalog *catalog.Catalog
	timers  *customtimer.Store
	uploads *upload.Gateway
	metrics *metrics.TimerMetrics
	clock   clockwork.Clock
	newID   func() uuid.UUID
}

// NewService creates the application service. The clock decides both the
// dynamic trending targets and the location custom times are parsed in.
func NewService(cat *catalog.Catalog, timers *customtimer.Store, uploads *upload.Gateway, m *metrics.TimerMetrics, clock clockwork.Clock) *Service {
	return &Service{
		catalog: cat,
		timers:  timers,
		uploads: uploads,
		metrics: m,
		clock:   clock,
		newID:   uuid.New,
	}
}

// TrendingTimers returns every trending timer in menu order.
func (s *Service) TrendingTimers() []domain.TrendingTimer {
	return s.catalog.All()
}

// TrendingTimer resolves one trending timer, or domain.ErrTimerNotFound.
func (s *Service) TrendingTimer(id string) (domain.TrendingTimer, error) {
	t, err := s.catalog.Resolve(id)
	if err != nil {
		return domain.TrendingTimer{}, err
	}
	s.metrics.Views.WithLabelValues("trending").Inc()
	return t, nil
}

// CustomTimers returns the session's timers in creation order.
func (s *Service) CustomTimers(session *sessions.Session) []domain.CustomTimer {
	return s.timers.List(session)
}

// CustomTimer looks up a timer of this session, or domain.ErrTimerNotFound.
func (s *Service) CustomTimer(session *sessions.Session, id string) (CustomTimerView, error) {
	t, ok := s.timers.FindByID(session, id)
	if !ok {
		return CustomTimerView{}, domain.ErrTimerNotFound
	}
	s.metrics.Views.WithLabelValues("custom").Inc()
	return CustomTimerView{CustomTimer: t, BackgroundURL: s.uploads.PublicURL(t.BackgroundKey)}, nil
}

// CreateCustomTimer validates the submission, stores the background image and
// appends the new timer to the session. The session is not saved here.
//
// The limit is checked first so that a full session never causes an upload.
func (s *Service) CreateCustomTimer(ctx context.Context, session *sessions.Session, req CreateCustomTimerRequest) (domain.CustomTimer, error) {
	timer, err := s.createCustomTimer(ctx, session, req)
	if err != nil {
		s.metrics.Rejected.WithLabelValues(rejectReason(err)).Inc()
		return domain.CustomTimer{}, err
	}
	s.metrics.Created.Inc()
	slog.InfoContext(ctx, "Custom timer created", "timer_id", timer.ID, "target", timer.Target())
	return timer, nil
}

func (s *Service) createCustomTimer(ctx context.Context, session *sessions.Session, req CreateCustomTimerRequest) (domain.CustomTimer, error) {
	if s.timers.Full(session) {
		return domain.CustomTimer{}, domain.ErrLimitExceeded
	}
	if req.File == nil {
		return domain.CustomTimer{}, domain.ErrNoFile
	}

	name, err := normalizeName(req)
	if err != nil {
		return domain.CustomTimer{}, err
	}

	target, err := s.parseTarget(req.Time)
	if err != nil {
		return domain.CustomTimer{}, err
	}

	ext, err := upload.Validate(req.Filename)
	if err != nil {
		return domain.CustomTimer{}, err
	}

	key, err := s.uploads.Store(ctx, req.File, ext)
	if err != nil {
		return domain.CustomTimer{}, err
	}

	timer := domain.CustomTimer{
		ID:            s.newID().String(),
		Name:          name,
		TargetDate:    target,
		BackgroundKey: key,
	}
	if err := s.timers.Add(session, timer); err != nil {
		return domain.CustomTimer{}, fmt.Errorf("failed to add custom timer: %w", err)
	}
	return timer, nil
}

func normalizeName(req CreateCustomTimerRequest) (string, error) {
	if !req.HasName {
		return DefaultTimerName, nil
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

// parseTarget reads a datetime-local value as a wall-clock time in the
// server's location.
func (s *Service) parseTarget(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.ErrMissingTime
	}
	t, err := time.ParseInLocation(domain.FormTimeLayout, value, s.clock.Now().Location())
	if err != nil {
		return time.Time{}, domain.ErrInvalidTime
	}
	return t, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrLimitExceeded):
		return "limit"
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrStorageFailure):
		return "storage"
	default:
		return "internal"
	}
}
