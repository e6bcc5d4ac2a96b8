package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debreselam/schoolbot/internal/directory"
)

// Identity is copied from the account when login completes.
type Identity struct {
	AccountID string
	Name      string
	Role      directory.Role
	Class     string // students only
	Subject   string // teachers only
}

// Session is the per-transport-user conversation state.
type Session struct {
	ID         string
	Expect     Expectation
	Identity   *Identity
	ActiveQuiz uuid.UUID
	LastSeen   time.Time
}

func newSession(id string) *Session {
	return &Session{ID: id, Expect: Idle{}}
}

// LoggedIn reports whether login has completed.
func (s *Session) LoggedIn() bool {
	return s.Identity != nil
}

// HasQuiz reports whether a quiz is attached to the session.
func (s *Session) HasQuiz() bool {
	return s.ActiveQuiz != uuid.Nil
}

// clear drops every transient and post-login field.
func (s *Session) clear() {
	s.Expect = Idle{}
	s.Identity = nil
	s.ActiveQuiz = uuid.Nil
}

type entry struct {
	mu      sync.Mutex
	sess    *Session
	removed bool
}

// table holds sessions keyed by transport user id. Each session has its own
// lock, held for the whole of one event.
type table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newTable() *table {
	return &table{entries: make(map[string]*entry)}
}

// acquire returns the locked entry for id, creating it on first contact.
func (t *table) acquire(id string) *entry {
	for {
		t.mu.Lock()
		e, ok := t.entries[id]
		if !ok {
			e = &entry{sess: newSession(id)}
			t.entries[id] = e
		}
		t.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// Swept while we waited; start over with a fresh entry.
		e.mu.Unlock()
	}
}

// snapshot returns a copy of the session, if one exists.
func (t *table) snapshot(id string) (Session, bool) {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Session{}, false
	}
	return *e.sess, true
}

// sweep removes sessions not seen since cutoff and returns their ids and
// the quizzes they still held.
func (t *table) sweep(cutoff time.Time) (removed []string, orphaned []uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, e := range t.entries {
		if !e.mu.TryLock() {
			continue // busy, so not idle
		}
		if e.sess.LastSeen.Before(cutoff) {
			if e.sess.HasQuiz() {
				orphaned = append(orphaned, e.sess.ActiveQuiz)
			}
			e.removed = true
			delete(t.entries, id)
			removed = append(removed, id)
		}
		e.mu.Unlock()
	}
	return removed, orphaned
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
