package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sathvik-zluri/moneytrack/internal/download"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
)

const SessionCookie = "moneytrack_session"

// Session is one browser's page plus the messages waiting for it.
type Session struct {
	ID     string
	Page   *transactions.Page
	Outbox *notify.Outbox

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// PageFactory builds the page for a new session. Notifications go to out and
// downloads to sink.
type PageFactory func(out *notify.Outbox, sink download.Sink) *transactions.Page

// SessionStore keeps sessions in memory, keyed by cookie.
type SessionStore struct {
	sessions sync.Map // session id -> *Session
	registry *download.Registry
	newPage  PageFactory
	now      func() time.Time
}

func NewSessionStore(registry *download.Registry, newPage PageFactory) *SessionStore {
	return &SessionStore{
		registry: registry,
		newPage:  newPage,
		now:      time.Now,
	}
}

// Get returns the caller's session, starting one if the cookie is missing
// or unknown.
func (s *SessionStore) Get(c *gin.Context) *Session {
	if id, err := c.Cookie(SessionCookie); err == nil {
		if v, ok := s.sessions.Load(id); ok {
			sess := v.(*Session)
			sess.touch(s.now())
			return sess
		}
	}

	out := notify.NewOutbox()
	sess := &Session{
		ID:       uuid.NewString(),
		Outbox:   out,
		Page:     s.newPage(out, download.OutboxSink{Registry: s.registry, Outbox: out}),
		lastSeen: s.now(),
	}
	s.sessions.Store(sess.ID, sess)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
	return sess
}

// Expire drops sessions idle for longer than ttl and reports how many went.
func (s *SessionStore) Expire(ttl time.Duration) int {
	now := s.now()
	n := 0
	s.sessions.Range(func(k, v any) bool {
		if v.(*Session).idleSince(now) > ttl {
			s.sessions.Delete(k)
			n++
		}
		return true
	})
	return n
}

func (s *SessionStore) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
