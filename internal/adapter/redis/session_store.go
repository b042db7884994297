package redis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	goredis "github.com/redis/go-redis/v9"
)

const sessionOpTimeout = 2 * time.Second

// Key schema:
//   session:{id}: string, securecookie-encoded session values, TTL = MaxAge

func sessionKey(id string) string {
	return "session:" + id
}

// SessionStore is a sessions.Store that keeps session values in Redis.
// The browser cookie only carries the signed session ID.
type SessionStore struct {
	rdb     goredis.Cmdable
	Codecs  []securecookie.Codec
	Options *sessions.Options
}

var _ sessions.Store = (*SessionStore)(nil)

// NewSessionStore takes key pairs in the same form as sessions.NewCookieStore.
func NewSessionStore(rdb goredis.Cmdable, keyPairs ...[]byte) *SessionStore {
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, codec := range codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			// Values are stored server-side, so the cookie size limit does not apply.
			sc.MaxLength(0)
		}
	}

	return &SessionStore{
		rdb:    rdb,
		Codecs: codecs,
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: 86400 * 30,
		},
	}
}

// MaxAge sets the cookie and Redis TTL, and the maximum age accepted by the codecs.
func (s *SessionStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, fmt.Errorf("failed to decode session cookie: %w", err)
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		// Values were not read, so a later Save must not reuse this key.
		session.ID = ""
		session.Values = make(map[any]any)
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
	defer cancel()

	if session.Options.MaxAge <= 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.rdb.Set(ctx, sessionKey(session.ID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	cookieValue, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), cookieValue, session.Options))
	return nil
}

func (s *SessionStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, sessionOpTimeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, sessionKey(session.ID)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		return false, fmt.Errorf("failed to decode session values: %w", err)
	}
	return true, nil
}
