package datastores

import (
	"context"
	"errors"
	"fmt"
)

type (
	ContactID = int
	Contact   struct {
		ID       ContactID
		Name     string
		Email    string
		Number   string
		Favorite bool
	}
)

// Clone returns a copy of c, or nil if c is nil.
func (c *Contact) Clone() *Contact {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ContactsStore persists contacts. Implementations hand out copies: callers
// may mutate returned contacts without affecting stored state.
type ContactsStore interface {
	Create(context.Context, *Contact) (ContactID, error)
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Save(context.Context, *Contact) error
	Delete(context.Context, ContactID) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrInvalidID      = errors.New("store: invalid id")
)

// NotFoundError is returned when no contact has the requested ID.
// It matches [ErrObjectNotFound] with [errors.Is].
type NotFoundError struct {
	ID ContactID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: contact %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrObjectNotFound }

// StorageError wraps a failure of the underlying backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }
