package datastores

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const contactsSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT    NOT NULL,
	email    TEXT    NOT NULL DEFAULT '',
	number   TEXT    NOT NULL DEFAULT '',
	favorite INTEGER NOT NULL DEFAULT 0
);`

// ContactsSQLite implements [ContactsStore] on top of an SQLite database.
type ContactsSQLite struct {
	db *sql.DB
}

var _ ContactsStore = (*ContactsSQLite)(nil)

// OpenContactsSQLite opens the database at dsn and creates the schema if needed.
// The pool is limited to one connection so ":memory:" databases are usable.
func OpenContactsSQLite(ctx context.Context, dsn string) (*ContactsSQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, contactsSchema)
	if err != nil {
		db.Close()
		return nil, &StorageError{Op: "init schema", Err: err}
	}
	return &ContactsSQLite{db: db}, nil
}

func (s *ContactsSQLite) Close() error { return s.db.Close() }

// Ping checks that the database is still reachable.
func (s *ContactsSQLite) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *ContactsSQLite) Create(ctx context.Context, c *Contact) (ContactID, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, number, favorite) VALUES (?, ?, ?, ?)`,
		c.Name, c.Email, c.Number, c.Favorite)
	if err != nil {
		return 0, &StorageError{Op: "create", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "create", Err: err}
	}
	c.ID = ContactID(id)
	return c.ID, nil
}

func (s *ContactsSQLite) List(ctx context.Context) ([]*Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, number, favorite FROM contacts ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c := new(Contact)
		err = rows.Scan(&c.ID, &c.Name, &c.Email, &c.Number, &c.Favorite)
		if err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		contacts = append(contacts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return contacts, nil
}

func (s *ContactsSQLite) Get(ctx context.Context, id ContactID) (*Contact, error) {
	c := new(Contact)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, number, favorite FROM contacts WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Number, &c.Favorite)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, &NotFoundError{ID: id}
	default:
		return nil, &StorageError{Op: "get", Err: err}
	}
}

func (s *ContactsSQLite) Save(ctx context.Context, c *Contact) error {
	if c.ID <= 0 {
		return ErrInvalidID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, number, favorite) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			number = excluded.number,
			favorite = excluded.favorite`,
		c.ID, c.Name, c.Email, c.Number, c.Favorite)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

func (s *ContactsSQLite) Delete(ctx context.Context, id ContactID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
