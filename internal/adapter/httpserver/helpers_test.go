package httpserver

import (
	"bytes"
	"context"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/app"
	"github.com/pscheid92/countdown/internal/catalog"
	"github.com/pscheid92/countdown/internal/customtimer"
	"github.com/pscheid92/countdown/internal/platform/config"
	"github.com/pscheid92/countdown/internal/upload"
	"github.com/pscheid92/countdown/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *mockBlobStore) PublicURL(key string) string {
	return "/uploads/" + key
}

func (m *mockBlobStore) Check(context.Context) error { return nil }

// --- Test server ---

var testNow = time.Date(2025, time.October, 22, 14, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "development",
		Port:            "0",
		SessionSecret:   "test-secret-key-32-bytes-long!!!",
		SessionMaxAge:   time.Hour,
		BlobBackend:     config.BlobBackendLocal,
		GCSPublicHost:   "storage.googleapis.com",
		UploadRateLimit: 100,
		UploadRateBurst: 100,
	}
}

func newTestApp(blobs *mockBlobStore) *app.Service {
	reg := prometheus.NewRegistry()
	clock := clockwork.NewFakeClockAt(testNow)
	return app.NewService(
		catalog.New(clock),
		customtimer.NewStore(customtimer.MaxPerSession),
		upload.NewGateway(blobs, metrics.NewUploadMetrics(reg)),
		metrics.NewTimerMetrics(reg),
		clock,
	)
}

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	require.NoError(t, err)

	cfg := testConfig()
	srv := &Server{
		echo:         echo.New(),
		config:       cfg,
		app:          newTestApp(newMockBlobStore()),
		sessionStore: NewCookieSessionStore(cfg),
		templates:    tmpl,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withBlobStore(blobs *mockBlobStore) func(*Server) {
	return func(s *Server) {
		s.app = newTestApp(blobs)
	}
}

func withConfig(modify func(*config.Config)) func(*Server) {
	return func(s *Server) {
		modify(s.config)
	}
}

func withSessionStore(store sessions.Store) func(*Server) {
	return func(s *Server) {
		s.sessionStore = store
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// --- Browser simulation ---

// testClient replays cookies between requests like a browser would.
type testClient struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, srv *Server) *testClient {
	return &testClient{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	tc.t.Helper()
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tc.srv.echo.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(tc.cookies, c.Name)
			continue
		}
		tc.cookies[c.Name] = c
	}
	return rec
}

func (tc *testClient) get(path string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrfToken loads the landing page when needed and returns the CSRF token.
func (tc *testClient) csrfToken() string {
	tc.t.Helper()
	if _, ok := tc.cookies[csrfCookieName]; !ok {
		rec := tc.get("/")
		require.Equal(tc.t, http.StatusOK, rec.Code)
	}
	cookie, ok := tc.cookies[csrfCookieName]
	require.True(tc.t, ok, "CSRF cookie should be set")
	return cookie.Value
}

type timerForm struct {
	name     *string
	time     string
	filename string
	content  []byte
	noFile   bool
}

func validForm() timerForm {
	name := "Launch"
	return timerForm{
		name:     &name,
		time:     "2026-01-01T00:00",
		filename: "valid.png",
		content:  []byte("\x89PNG\r\n\x1a\nfake image data"),
	}
}

func (tc *testClient) postTimer(form timerForm, ajax bool) *httptest.ResponseRecorder {
	tc.t.Helper()
	body, contentType := encodeTimerForm(tc.t, form, tc.csrfToken())
	req := httptest.NewRequest(http.MethodPost, "/timer/custom", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if ajax {
		req.Header.Set(echo.HeaderXRequestedWith, echo.XMLHttpRequest)
	}
	return tc.do(req)
}

func encodeTimerForm(t *testing.T, form timerForm, csrf string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if csrf != "" {
		require.NoError(t, w.WriteField("csrf_token", csrf))
	}
	if form.name != nil {
		require.NoError(t, w.WriteField("name", *form.name))
	}
	require.NoError(t, w.WriteField("time", form.time))
	if !form.noFile {
		part, err := w.CreateFormFile("background", form.filename)
		require.NoError(t, err)
		_, err = part.Write(form.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

const csrfCookieName = "csrf_token"
