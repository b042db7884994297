package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableSessionStore fails every read like a Redis store during an outage.
type unreachableSessionStore struct {
	saves int
}

func (s *unreachableSessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

func (s *unreachableSessionStore) New(_ *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	session.Options = &sessions.Options{Path: "/", MaxAge: 3600}
	session.IsNew = true
	return session, errors.New("failed to load session: i/o timeout")
}

func (s *unreachableSessionStore) Save(*http.Request, http.ResponseWriter, *sessions.Session) error {
	s.saves++
	return nil
}

func TestSession_StoreOutageIsNotTreatedAsFreshSession(t *testing.T) {
	store := &unreachableSessionStore{}
	srv := newTestServer(t, withSessionStore(store))
	client := newTestClient(t, srv)

	for _, path := range []string{"/", "/timer/custom/abc"} {
		rec := client.get(path)
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "session storage unavailable", path)
	}
	assert.Zero(t, store.saves, "a session that could not be read must never be saved")
}

func TestSession_UndecodableCookieStartsFresh(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "signed-with-an-old-secret"})
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "custom-timer-form")
}

func TestFlash_PopClearsMessage(t *testing.T) {
	session := sessions.NewSession(&unreachableSessionStore{}, sessionName)
	setFlash(session, "first")
	setFlash(session, "second")

	message, ok := popFlash(session)
	assert.True(t, ok)
	assert.Equal(t, "second", message)

	_, ok = popFlash(session)
	assert.False(t, ok)
}
