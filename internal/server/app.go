// Package server wires the WishKeeper components together: it opens the
// record store, builds the domain services, and runs the HTTP API and the
// gRPC health endpoint until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/auth"
	"github.com/dmitrijs2005/wishkeeper/internal/server/config"
	"github.com/dmitrijs2005/wishkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/wishkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/wishkeeper/internal/server/identity"
	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
	"github.com/dmitrijs2005/wishkeeper/internal/server/invitations"
	"github.com/dmitrijs2005/wishkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/wishkeeper/internal/server/records"
	"github.com/dmitrijs2005/wishkeeper/internal/server/wishlists"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/wishkeeper/internal/server/grpc"
)

// limiterTTL is how long an idle client keeps its auth rate limiter.
const limiterTTL = 10 * time.Minute

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   records.Store
	limiter *httpapi.RateLimiter
	http    *httpapi.Server
	grpc    *gs.HealthServer
}

// openStore selects the record store backend named in the config.
func openStore(ctx context.Context, c *config.Config) (records.Store, error) {
	switch c.StorageDriver {
	case config.DriverMemory:
		return records.NewMemoryStore(identity.UniqueFields...), nil
	case config.DriverPostgres:
		return records.OpenPostgres(ctx, c.DatabaseDSN)
	case config.DriverSQLite:
		return records.OpenSQLite(ctx, c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

// NewApp builds every component. Logs go to w as JSON lines.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(w, c.LogLevel)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(c, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, store records.Store) (*App, error) {
	hasher, err := credentials.New(c.PasswordHasher)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(reg)

	ids, err := identity.NewRegistry(store, hasher, auth.NewIssuer([]byte(c.SecretKey), c.TokenValidity), logger)
	if err != nil {
		return nil, err
	}
	lists := wishlists.NewStore(store, ids, nil, logger)
	flow := invitations.NewFlow(lists, ids, logger, func(o invitations.Outcome) {
		m.RecordInvitation(string(o))
	})

	limiter := httpapi.NewRateLimiter(c.AuthRateLimit, c.AuthRateBurst, limiterTTL, logger)

	deps := httpapi.Deps{
		Identity:       ids,
		Wishlists:      lists,
		Invitations:    flow,
		Health:         store,
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
		CORSOrigins:    c.CORSOrigins,
		Logger:         logger,
	}
	if limiter.Enabled() {
		deps.AuthLimiter = limiter
	}
	presigner := images.NewPresigner(images.Config{
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if presigner.Enabled() {
		deps.Images = presigner
	}

	return &App{
		config:  c,
		logger:  logger,
		store:   store,
		limiter: deps.AuthLimiter,
		http:    httpapi.NewServer(c.HTTPAddr, httpapi.NewRouter(deps), logger, c.ShutdownTimeout),
		grpc:    gs.NewHealthServer(c.GRPCAddr, logger, store, c.HealthInterval, m),
	}, nil
}

// Handler exposes the HTTP router, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.http.Handler()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// cleanupLimiter evicts idle rate-limit entries once per ttl.
func (app *App) cleanupLimiter(ctx context.Context) {
	if app.limiter == nil {
		return
	}
	t := time.NewTicker(limiterTTL)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			app.limiter.Cleanup()
		}
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails. The record store is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })
	g.Go(func() error {
		app.cleanupLimiter(gctx)
		return nil
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}

	if cerr := app.store.Close(); cerr != nil {
		app.logger.Error(ctx, "closing record store", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
