package engine

import (
	"context"
	"sync"
	"time"

	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/oklog/ulid/v2"
)

// Session holds the single active result of one browser session. Only one
// conversion runs per session: starting a new one cancels the one in flight,
// and the newest upload wins.
type Session struct {
	ID ulid.ULID

	mu         sync.Mutex
	result     *ConversionResult
	cancel     context.CancelCauseFunc
	generation uint64
	lastSeen   time.Time
}

func newSession(id ulid.ULID, now time.Time) *Session {
	return &Session{ID: id, lastSeen: now}
}

// Result returns the current result, or nil if nothing has been converted
func (s *Session) Result() *ConversionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Busy reports whether a conversion is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Convert runs conv on data and, on success, replaces the session result
// wholesale. A failed or superseded run leaves the last good result in place.
func (s *Session) Convert(ctx context.Context, conv *Converter, data []byte, format imageformat.Format, sourceName string, progress ProgressFunc) (*ConversionResult, error) {
	s.mu.Lock()
	if s.cancel != nil {
		Logger.Info("Cancelling in-flight conversion for newer upload", "session", s.ID)
		s.cancel(ErrSuperseded)
	}
	s.generation++
	generation := s.generation
	runCtx, cancel := context.WithCancelCause(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel(nil)

	result, err := conv.Convert(runCtx, data, format, progress)

	s.mu.Lock()
	defer s.mu.Unlock()
	superseded := s.generation != generation
	if !superseded {
		s.cancel = nil
	}
	if err != nil {
		return nil, err
	}
	if superseded {
		cause := context.Cause(runCtx)
		if cause == nil {
			cause = ErrSuperseded
		}
		return nil, &ConversionError{Reason: ReasonCancelled, PageIndex: result.Len(), Err: cause}
	}
	result.SourceName = sourceName
	s.result = result
	return result, nil
}

// Clear drops the held result and cancels any conversion in flight
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrCleared)
		s.cancel = nil
		s.generation++
	}
	s.result = nil
}

// SessionStore tracks sessions in memory by ID
type SessionStore struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl idle time
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[ulid.ULID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session with a fresh ID
func (st *SessionStore) Create() *Session {
	now := st.now()
	session := newSession(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()), now)
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session
}

// Get returns the session for id and marks it as seen
func (st *SessionStore) Get(id ulid.ULID) (*Session, bool) {
	st.mu.Lock()
	session, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		session.touch(st.now())
	}
	return session, ok
}

// GetOrCreate returns the session for id, creating it when it has expired
// or was never seen
func (st *SessionStore) GetOrCreate(id ulid.ULID) *Session {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.sessions[id]
	if !ok {
		session = newSession(id, now)
		st.sessions[id] = session
		return session
	}
	session.touch(now)
	return session
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than the TTL, releasing their pages.
// Sessions with a conversion in flight are kept.
func (st *SessionStore) Prune() int {
	cutoff := st.now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()

	pruned := 0
	for id, session := range st.sessions {
		if session.Busy() || !session.idleSince().Before(cutoff) {
			continue
		}
		session.Clear()
		delete(st.sessions, id)
		pruned++
	}
	return pruned
}
