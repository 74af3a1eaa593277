package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage represents a one-time notification stored in session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	userID    string
	flashes   []FlashMessage
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values  map[string]string `json:"values"`
	UserID  string            `json:"user_id"`
	Flashes []FlashMessage    `json:"flashes"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// CookieName exposes the configured cookie name.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			sess.isNew = true
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	if stored.Values != nil {
		sess.values = stored.Values
	}
	sess.userID = stored.UserID
	sess.flashes = stored.Flashes
	sess.isNew = false
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		payload := sessionPayload{Values: sess.values, UserID: sess.userID, Flashes: sess.flashes}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.isNew {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(sm.ttl.Seconds()),
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		sess.isNew = false
	}
	return nil
}

// Destroy marks the session for removal on commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
	sess.dirty = true
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		values:  make(map[string]string),
		flashes: nil,
		isNew:   true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "stockyard:session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	return uuid.NewString()
}

// Get reads a session value.
func (s *Session) Get(key string) string {
	if s == nil {
		return ""
	}
	return s.values[key]
}

// Set stores a session value.
func (s *Session) Set(key, value string) {
	if s == nil {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// User returns the authenticated user identifier, empty when anonymous.
func (s *Session) User() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// SetUser binds the session to a user identifier.
func (s *Session) SetUser(id string) {
	if s == nil {
		return
	}
	s.userID = id
	s.dirty = true
}

// AddFlash queues a one-time message.
func (s *Session) AddFlash(f FlashMessage) {
	if s == nil {
		return
	}
	s.flashes = append(s.flashes, f)
	s.dirty = true
}

// PopFlash removes and returns the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if s == nil || len(s.flashes) == 0 {
		return nil
	}
	f := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &f
}
