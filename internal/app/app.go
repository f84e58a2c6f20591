// Package app wires configuration, logging, lifecycle events, the operation
// journal, the proxy connection and the façade client together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/cadence-client/internal/config"
	"github.com/morezero/cadence-client/pkg/cadence"
	"github.com/morezero/cadence-client/pkg/commsutil"
	"github.com/morezero/cadence-client/pkg/connection"
	"github.com/morezero/cadence-client/pkg/control"
	"github.com/morezero/cadence-client/pkg/db"
	"github.com/morezero/cadence-client/pkg/events"
)

const logPrefix = "app:app"

// App owns every resource opened for one client session.
type App struct {
	cfg    *config.Config
	nc     *comms.Conn
	pool   *pgxpool.Pool
	conn   *connection.Connection
	client *cadence.Client
}

// ParseLogLevel maps LOG_LEVEL to a slog level; unknown values are info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs the process-wide text logger.
func SetupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLogLevel(level)})))
}

// Open connects the optional backends, then the proxy connection. Anything
// opened before a failure is closed again.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateForConnect(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}

	// Step 1: COMMS lifecycle events
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
		}
		a.nc = nc
		publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{
			Subject: cfg.EventSubject,
			Service: cfg.COMMSName,
		})
	} else {
		slog.Info(fmt.Sprintf("%s - COMMS_URL not set, lifecycle events disabled", logPrefix))
	}

	// Step 2: operation journal
	var journal cadence.Journal = cadence.NoOpJournal{}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		a.pool = pool
		journal = db.NewRepository(pool)
	} else {
		slog.Info(fmt.Sprintf("%s - DATABASE_URL not set, operation journal disabled", logPrefix))
	}

	// Step 3: proxy connection
	conn, err := connection.New(connection.Options{
		ProxyURL:                cfg.ProxyURL,
		ListenAddr:              cfg.ListenAddr,
		Endpoints:               cfg.Endpoints,
		Domain:                  cfg.Domain,
		Identity:                cfg.Identity,
		RequestTimeout:          cfg.RequestTimeout,
		ConnectTimeout:          cfg.ConnectTimeout,
		HeartbeatInterval:       cfg.HeartbeatInterval,
		HeartbeatTimeout:        cfg.HeartbeatTimeout,
		MaxMissedHeartbeats:     cfg.MaxMissedHeartbeats,
		InboundHeartbeatTimeout: cfg.InboundHeartbeatTimeout,
		ProxyVersionRange:       cfg.ProxyVersion,
		ProxyBinary:             cfg.ProxyBinary,
		ProxyArgs:               cfg.ProxyArgList(),
		Service:                 cfg.COMMSName,
		Publisher:               publisher,
	})
	if err != nil {
		a.closeBackends()
		return nil, fmt.Errorf("%s - invalid connection options: %w", logPrefix, err)
	}
	if err := conn.Connect(ctx); err != nil {
		a.closeBackends()
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	a.conn = conn

	// Step 4: façade client
	a.client = cadence.NewClient(cadence.NewClientParams{
		Conn:    conn,
		Journal: journal,
		Config:  cadence.Config{Domain: cfg.Domain, RequestTimeout: cfg.RequestTimeout},
	})

	slog.Info(fmt.Sprintf("%s - Connected to proxy at %s (connection %s)", logPrefix, cfg.ProxyURL, conn.ID()))
	return a, nil
}

// Client returns the façade client.
func (a *App) Client() *cadence.Client { return a.client }

// Connection returns the proxy connection.
func (a *App) Connection() *connection.Connection { return a.conn }

// ServeControl answers operator requests on the control subject until Close.
// It is a no-op when COMMS is not configured.
func (a *App) ServeControl(ctx context.Context) error {
	if a.nc == nil {
		slog.Info(fmt.Sprintf("%s - COMMS_URL not set, control requests disabled", logPrefix))
		return nil
	}
	_, err := control.Serve(ctx, control.ServeParams{
		Conn:           a.nc,
		Subject:        a.cfg.ControlSubject,
		Dispatcher:     control.NewDispatcher(a.client),
		RequestTimeout: a.cfg.RequestTimeout,
	})
	return err
}

// Wait blocks until SIGINT/SIGTERM, ctx ends, or the connection closes on
// its own (terminate from the proxy or liveness loss).
func (a *App) Wait(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))
	case <-ctx.Done():
	case <-a.conn.Done():
		slog.Warn(fmt.Sprintf("%s - Proxy connection closed", logPrefix))
	}
}

// Close terminates the proxy connection first so its final lifecycle events
// can still be published, then releases COMMS and the database.
func (a *App) Close() error {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			slog.Warn(fmt.Sprintf("%s - connection close: %v", logPrefix, err))
		}
	}
	return a.closeBackends()
}

func (a *App) closeBackends() error {
	var g errgroup.Group
	if nc := a.nc; nc != nil {
		g.Go(func() error {
			if err := nc.Drain(); err != nil {
				nc.Close()
				return fmt.Errorf("%s - COMMS drain: %w", logPrefix, err)
			}
			return nil
		})
	}
	if pool := a.pool; pool != nil {
		g.Go(func() error {
			pool.Close()
			return nil
		})
	}
	err := g.Wait()
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return err
}
