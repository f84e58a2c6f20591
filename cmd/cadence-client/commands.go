package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/cadence-client/internal/app"
	"github.com/morezero/cadence-client/internal/config"
	"github.com/morezero/cadence-client/pkg/cadence"
	"github.com/morezero/cadence-client/pkg/db"
)

// withClient loads config, opens a session, runs fn and closes the session.
func withClient(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app.SetupLogging(cfg.LogLevel)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// withPool loads config, opens the journal database, runs fn and closes it.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	app.SetupLogging(cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runConnect() error {
	return withClient(func(ctx context.Context, a *app.App) error {
		if err := a.ServeControl(ctx); err != nil {
			return err
		}
		fmt.Printf("Connected (connection %s). Press Ctrl+C to disconnect.\n", a.Connection().ID())
		a.Wait(ctx)
		return nil
	})
}

func runPing() error {
	return withClient(func(ctx context.Context, a *app.App) error {
		rtt, err := a.Client().Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pong in %s\n", rtt)
		return nil
	})
}

// domainFlags holds the optional domain settings shared by register and update.
type domainFlags struct {
	description string
	owner       string
	retention   int
	metrics     bool
}

func parseDomainFlags(args []string) (*domainFlags, error) {
	var f domainFlags
	fs := flag.NewFlagSet("domain", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.description, "description", "", "domain description")
	fs.StringVar(&f.owner, "owner", "", "owner email")
	fs.IntVar(&f.retention, "retention", 7, "workflow history retention in days")
	fs.BoolVar(&f.metrics, "metrics", false, "emit domain metrics")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if f.retention < 0 || f.retention > 1<<31-1 {
		return nil, fmt.Errorf("retention %d out of range", f.retention)
	}
	return &f, nil
}

func runDomain(sub, name string, rest []string) error {
	switch sub {
	case "register", "update":
		f, err := parseDomainFlags(rest)
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, a *app.App) error {
			if sub == "register" {
				return a.Client().RegisterDomain(ctx, &cadence.RegisterDomainInput{
					Name: name, Description: f.description, OwnerEmail: f.owner,
					EmitMetrics: f.metrics, RetentionDays: int32(f.retention),
				})
			}
			return a.Client().UpdateDomain(ctx, &cadence.UpdateDomainInput{
				Name: name, Description: f.description, OwnerEmail: f.owner,
				EmitMetrics: f.metrics, RetentionDays: int32(f.retention),
			})
		})
	case "describe":
		return withClient(func(ctx context.Context, a *app.App) error {
			desc, err := a.Client().DescribeDomain(ctx, name)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, desc)
		})
	default:
		return fmt.Errorf("unknown domain subcommand %q (use register, describe, update)", sub)
	}
}

func runCancel(arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q: %w", arg, err)
	}
	return withClient(func(ctx context.Context, a *app.App) error {
		ok, err := a.Client().Cancel(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("request %d cancelled: %v\n", id, ok)
		return nil
	})
}

func parseJournalFlags(args []string) (db.ListOperationsParams, error) {
	var p db.ListOperationsParams
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&p.Operation, "operation", "", "only this operation (e.g. domain.register)")
	fs.StringVar(&p.ErrorType, "error-type", "", "only this error type (e.g. timeout)")
	fs.IntVar(&p.Limit, "limit", 50, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return p, err
	}
	return p, nil
}

func runJournal(args []string) error {
	params, err := parseJournalFlags(args)
	if err != nil {
		return err
	}
	return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
		ops, err := db.NewRepository(pool).ListOperations(ctx, params)
		if err != nil {
			return err
		}
		return printOperations(os.Stdout, ops)
	})
}

func printOperations(out io.Writer, ops []db.Operation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tOPERATION\tREQUEST\tRESULT\tMS\tERROR")
	for _, op := range ops {
		errText := ""
		if op.Error != nil {
			errText = *op.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			op.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"), op.Operation, op.RequestID, op.ErrorType, op.DurationMs, errText)
	}
	return w.Flush()
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMigrateUp() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

func runMigrateStatus() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath, os.Stdout)
	})
}

func runClear() error {
	return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
		if err := db.ClearJournal(ctx, pool); err != nil {
			return fmt.Errorf("clear journal: %w", err)
		}
		return nil
	})
}
