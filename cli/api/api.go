package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/handlers"
	"github.com/oaiiae/contacts-edit/router"
	"github.com/oaiiae/contacts-edit/session"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                    default:""`
	Port              string        `short:"p" doc:"port to listen on"                    default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers" default:"15s"`
	ShutdownTimeout   time.Duration `          doc:"time allowed to drain open requests"  default:"1m"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix  string        `doc:"mount endpoints at a prefix"                   default:"/api"`
	SessionTTL       time.Duration `doc:"close edit sessions idle for longer than this" default:"30m"`
	MaxSessions      int           `doc:"maximum number of open edit sessions"          default:"10000"`
	ReadinessTimeout time.Duration `doc:"time allowed for the store to answer a ping"   default:"2s"`
}

// NewRouter mounts the contacts and edit sessions endpoints backed by store.
func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	store ds.ContactsStore,
	logger *slog.Logger,
) http.Handler {
	buildinfoMetric := joinQuote("build_info{goversion=", runtime.Version(),
		",title=", title,
		",version=", version,
		",revision=", revision,
		",created=", created,
		"} 1\n")
	registry := session.NewRegistry(store, logger,
		session.WithIdleTTL(options.SessionTTL),
		session.WithMaxSessions(options.MaxSessions),
	)
	metriks := metrics.NewSet()
	metriks.NewGauge("contact_edit_sessions_open", func() float64 { return float64(registry.Len()) })
	errorHandler := ctxlog{}.errorHandler(logger, metriks)
	return router.New(title, version,
		readiness(store, options.ReadinessTimeout, logger),
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			meterRequests(metriks),
			ctxlog{}.recoverMiddleware(logger),
		),
		router.OptGroup(options.EndpointsPrefix,
			router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{
				Store:        store,
				ErrorHandler: errorHandler,
			})),
			router.OptGroup("/sessions", router.OptAutoRegister(&handlers.Sessions{
				Registry:     registry,
				ErrorHandler: errorHandler,
			})),
		),
	)
}

// pinger is implemented by stores backed by a connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// readiness reports 503 while the store does not answer a ping.
// Stores without a connection are always ready.
func readiness(store ds.ContactsStore, timeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	p, ok := store.(pinger)
	if !ok {
		return func(http.ResponseWriter, *http.Request) {}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := p.Ping(ctx)
		if err != nil {
			logger.Warn("store not ready", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}

// joinQuote is [strings.Join] with " as separator.
func joinQuote(elems ...string) string { return strings.Join(elems, `"`) }
