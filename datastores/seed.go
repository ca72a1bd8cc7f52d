package datastores

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout read by [LoadSeed]:
//
//	contacts:
//	  - id: 1
//	    name: Farooq
//	    email: farooq@example.com
type seedFile struct {
	Contacts []struct {
		ID       ContactID `yaml:"id"`
		Name     string    `yaml:"name"`
		Email    string    `yaml:"email"`
		Number   string    `yaml:"number"`
		Favorite bool      `yaml:"favorite"`
	} `yaml:"contacts"`
}

// LoadSeed decodes contacts from a YAML document.
func LoadSeed(r io.Reader) ([]*Contact, error) {
	var f seedFile
	err := yaml.NewDecoder(r).Decode(&f)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	contacts := make([]*Contact, 0, len(f.Contacts))
	for i, c := range f.Contacts {
		if c.Name == "" {
			return nil, fmt.Errorf("decode seed: contact #%d: empty name", i)
		}
		contacts = append(contacts, &Contact{
			ID:       c.ID,
			Name:     c.Name,
			Email:    c.Email,
			Number:   c.Number,
			Favorite: c.Favorite,
		})
	}
	return contacts, nil
}

// Seed writes contacts to store. Contacts with an ID are saved under it,
// others are created.
func Seed(ctx context.Context, store ContactsStore, contacts []*Contact) error {
	for _, c := range contacts {
		var err error
		if c.ID > 0 {
			err = store.Save(ctx, c)
		} else {
			_, err = store.Create(ctx, c)
		}
		if err != nil {
			return fmt.Errorf("seed %q: %w", c.Name, err)
		}
	}
	return nil
}
