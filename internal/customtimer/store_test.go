package customtimer

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *sessions.Session {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	return sessions.NewSession(store, "test-session")
}

func newTimer(name string) domain.CustomTimer {
	return domain.CustomTimer{
		ID:            uuid.NewString(),
		Name:          name,
		TargetDate:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		BackgroundKey: uuid.NewString() + ".png",
	}
}

func TestList_EmptySession(t *testing.T) {
	store := NewStore(MaxPerSession)
	assert.Empty(t, store.List(newSession()))
}

func TestAdd_PreservesOrder(t *testing.T) {
	store := NewStore(MaxPerSession)
	session := newSession()

	first := newTimer("first")
	second := newTimer("second")
	require.NoError(t, store.Add(session, first))
	require.NoError(t, store.Add(session, second))

	timers := store.List(session)
	require.Len(t, timers, 2)
	assert.Equal(t, first.ID, timers[0].ID)
	assert.Equal(t, second.ID, timers[1].ID)
	assert.True(t, first.TargetDate.Equal(timers[0].TargetDate))
}

func TestAdd_LimitExceeded(t *testing.T) {
	store := NewStore(MaxPerSession)
	session := newSession()

	for i := range MaxPerSession {
		require.NoError(t, store.Add(session, newTimer(fmt.Sprintf("timer-%d", i))))
	}
	assert.True(t, store.Full(session))

	err := store.Add(session, newTimer("one too many"))
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	assert.Len(t, store.List(session), MaxPerSession)
}

func TestFindByID(t *testing.T) {
	store := NewStore(MaxPerSession)
	session := newSession()

	timer := newTimer("Launch")
	require.NoError(t, store.Add(session, timer))

	got, ok := store.FindByID(session, timer.ID)
	require.True(t, ok)
	assert.Equal(t, "Launch", got.Name)
	assert.Equal(t, timer.BackgroundKey, got.BackgroundKey)

	_, ok = store.FindByID(session, uuid.NewString())
	assert.False(t, ok)
}

func TestList_CorruptPayloadIsEmpty(t *testing.T) {
	store := NewStore(MaxPerSession)
	session := newSession()
	session.Values[sessionKeyTimers] = "{not json"

	assert.Empty(t, store.List(session))
	assert.False(t, store.Full(session))
	require.NoError(t, store.Add(session, newTimer("recovered")))
	assert.Len(t, store.List(session), 1)
}

func TestList_WrongValueTypeIsEmpty(t *testing.T) {
	store := NewStore(MaxPerSession)
	session := newSession()
	session.Values[sessionKeyTimers] = 42

	assert.Empty(t, store.List(session))
}
