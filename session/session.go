// Package session holds a contact being edited and mediates its loading,
// validation and saving through a [datastores.ContactsStore].
package session

import (
	"context"
	"log/slog"
	"sync"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/validate"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// Session is an edit session over a single contact.
//
// Operations are applied one at a time in the order they acquire the session;
// the last one to complete determines the held contact. Reads never wait on
// the store.
type Session struct {
	store  ds.ContactsStore
	logger *slog.Logger

	op sync.Mutex // serializes Load, Save and Update

	mu      sync.Mutex
	state   State
	contact *ds.Contact
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithContact starts the session in [Ready] holding a copy of c.
func WithContact(c *ds.Contact) Option {
	return func(s *Session) {
		s.contact = c.Clone()
		s.state = Ready
	}
}

func New(store ds.ContactsStore, opts ...Option) *Session {
	s := &Session{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Contact returns a copy of the held contact and whether there is one.
func (s *Session) Contact() (ds.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contact == nil {
		return ds.Contact{}, false
	}
	return *s.contact, true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsLoading() bool { return s.State() == Loading }

// transition sets the state and, when c is not nil, the held contact.
func (s *Session) transition(state State, c *ds.Contact) {
	s.mu.Lock()
	from := s.state
	s.state = state
	if c != nil {
		s.contact = c
	}
	s.mu.Unlock()
	s.logger.Debug("session transition", "from", from, "to", state)
}

// Load fetches the contact with the given id and holds it. On failure the
// session returns to [Idle], keeps its previous contact and the store error
// is returned.
func (s *Session) Load(ctx context.Context, id ds.ContactID) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.transition(Loading, nil)
	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.transition(Idle, nil)
		s.logger.Warn("could not load contact", "id", id, "err", err)
		return err
	}
	s.transition(Ready, c.Clone())
	return nil
}

// Save holds c without validating it and forwards it to the store.
func (s *Session) Save(ctx context.Context, c ds.Contact) error {
	s.op.Lock()
	defer s.op.Unlock()
	return s.save(ctx, &c)
}

// Update validates c and, if it passes, saves it as [Session.Save] does.
// A [*validate.ValidationError] is returned when it does not pass, in which
// case neither the held contact nor the state change.
func (s *Session) Update(ctx context.Context, c ds.Contact) error {
	s.op.Lock()
	defer s.op.Unlock()

	err := validate.Contact(c.Email, c.Number)
	if err != nil {
		s.logger.Info("rejected contact update", "id", c.ID, "err", err)
		return err
	}
	return s.save(ctx, &c)
}

func (s *Session) save(ctx context.Context, c *ds.Contact) error {
	s.transition(Saving, c)
	err := s.store.Save(ctx, c.Clone())
	s.transition(Ready, nil)
	if err != nil {
		s.logger.Warn("could not save contact", "id", c.ID, "err", err)
	}
	return err
}
