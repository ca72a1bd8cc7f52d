package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	ds "github.com/oaiiae/contacts-edit/datastores"
)

type Options struct {
	Driver string `doc:"contacts storage: inmem or sqlite"        default:"inmem" enum:"inmem,sqlite"`
	DSN    string `doc:"sqlite data source name"                  default:"contacts.db"`
	Seed   string `doc:"YAML file of contacts to store on startup"`
}

// New opens the store described by options and seeds it. The returned
// function releases the store.
func New(ctx context.Context, options *Options, logger *slog.Logger) (ds.ContactsStore, func() error, error) {
	var (
		store  ds.ContactsStore
		closer = func() error { return nil }
	)
	switch options.Driver {
	case "", "inmem":
		store = ds.NewContactsInmem()
	case "sqlite":
		s, err := ds.OpenContactsSQLite(ctx, options.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", options.Driver)
	}

	if options.Seed != "" {
		err := seed(ctx, store, options.Seed)
		if err != nil {
			closer() //nolint: errcheck // seed error takes precedence
			return nil, nil, err
		}
		logger.Info("store seeded", "file", options.Seed)
	}

	logger.Info("store opened", "driver", options.Driver)
	return store, closer, nil
}

func seed(ctx context.Context, store ds.ContactsStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contacts, err := ds.LoadSeed(f)
	if err != nil {
		return err
	}
	return ds.Seed(ctx, store, contacts)
}
