package datastores

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// ContactsInmem implements [ContactsStore].
type ContactsInmem struct {
	mu       sync.Mutex
	lastID   ContactID
	contacts map[ContactID]*Contact
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store holding copies of cs. Contacts without an
// ID are assigned one, as with [ContactsInmem.Create].
func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	s := &ContactsInmem{contacts: make(map[ContactID]*Contact, len(cs))}
	for _, c := range cs {
		if c.ID > s.lastID {
			s.lastID = c.ID
		}
	}
	for _, c := range cs {
		c = c.Clone()
		if c.ID <= 0 {
			s.lastID++
			c.ID = s.lastID
		}
		s.contacts[c.ID] = c
	}
	return s
}

func (s *ContactsInmem) Create(ctx context.Context, c *Contact) (ContactID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	c.ID = s.lastID
	s.contacts[c.ID] = c.Clone()
	return c.ID, nil
}

func (s *ContactsInmem) List(ctx context.Context) ([]*Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := slices.Sorted(maps.Keys(s.contacts))
	contacts := make([]*Contact, 0, len(ids))
	for _, id := range ids {
		contacts = append(contacts, s.contacts[id].Clone())
	}
	return contacts, nil
}

func (s *ContactsInmem) Get(ctx context.Context, id ContactID) (*Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return c.Clone(), nil
}

func (s *ContactsInmem) Save(ctx context.Context, c *Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID <= 0 {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID = max(s.lastID, c.ID)
	s.contacts[c.ID] = c.Clone()
	return nil
}

func (s *ContactsInmem) Delete(ctx context.Context, id ContactID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, id)
	return nil
}
