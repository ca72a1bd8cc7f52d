package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/oaiiae/contacts-edit/cli/api"
	"github.com/oaiiae/contacts-edit/cli/logger"
	"github.com/oaiiae/contacts-edit/cli/store"
)

// set with -ldflags "-X main.version=..."
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--server-port` or set the `SERVICE_SERVER_PORT` env var.
type Options struct {
	Logger logger.Options
	Server api.ServerOptions
	Router api.RouterOptions
	Store  store.Options
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		log, closeLog := logger.New(&options.Logger)
		var srv *http.Server

		hooks.OnStart(func() {
			err := serve(options, log, func(s *http.Server) { srv = s })
			if err != nil {
				log.Error("server failed", "err", err)
			}
			closeLog() //nolint: errcheck // nothing left to log to
			if err != nil {
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			if srv == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), options.Server.ShutdownTimeout)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				log.Warn("could not shutdown the server", "err", err)
			}
		})
	})
	cli.Run()
}

// serve opens the store and serves the API until the server is shut down.
// started is called with the server before it listens.
func serve(options *Options, log *slog.Logger, started func(*http.Server)) error {
	contacts, closeStore, err := store.New(context.Background(), &options.Store, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		err := closeStore()
		if err != nil {
			log.Warn("could not close the store", "err", err)
		}
	}()

	srv := api.NewServer(&options.Server,
		api.NewRouter(&options.Router, "Contacts Edit", version, revision, created, contacts, log),
		log,
	)
	started(srv)
	log.Info("server listening", "addr", srv.Addr)
	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	log.Info("server closed")
	return nil
}
