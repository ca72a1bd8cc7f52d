package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	ds "github.com/oaiiae/contacts-edit/datastores"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
)

// Registry keeps open sessions by ID. It is safe for concurrent use.
//
// Sessions not used for longer than the idle TTL are dropped. When the
// registry is full, Open first drops idle sessions and then fails.
type Registry struct {
	store  ds.ContactsStore
	logger *slog.Logger

	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[ds.UUID]*entry
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL drops sessions unused for d. Zero keeps them forever.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

// WithMaxSessions caps the number of open sessions. Zero means no cap.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) { r.maxSessions = n }
}

func NewRegistry(store ds.ContactsStore, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[ds.UUID]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(e.lastUsed) > r.idleTTL
}

// sweep drops expired sessions. r.mu must be held.
func (r *Registry) sweep(now time.Time) {
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			r.logger.Debug("session expired", "session", id.String())
		}
	}
}

// Open starts an idle session and returns it with its ID.
func (r *Registry) Open() (ds.UUID, *Session, error) {
	id := ds.NewUUID()
	s := New(r.store, WithLogger(r.logger.With("session", id.String())))

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.sweep(now)
		if len(r.sessions) >= r.maxSessions {
			return ds.UUID{}, nil, ErrTooManySessions
		}
	}
	r.sessions[id] = &entry{session: s, lastUsed: now}
	return id, s, nil
}

// Get returns the session and marks it used. Expired sessions are dropped
// and reported as [ErrNotFound].
func (r *Registry) Get(id ds.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.sessions, id)
		return nil, ErrNotFound
	}
	e.lastUsed = now
	return e.session, nil
}

// Close forgets the session. It returns [ErrNotFound] if it was not open.
func (r *Registry) Close(id ds.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	if !ok || r.expired(e, r.now()) {
		return ErrNotFound
	}
	return nil
}

// Len returns the number of sessions that have not expired.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return len(r.sessions)
}
