package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rentals/internal/adapters/csvsource"
	"rentals/internal/adapters/observability"
	redisad "rentals/internal/adapters/redis"
	"rentals/internal/app"
	"rentals/internal/domain"
	"rentals/internal/shared"
	"rentals/internal/storage/memory"
	mysqlrepo "rentals/internal/storage/mysql"
)

type loadOptions struct {
	dryRun bool
	json   bool
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load <source.csv>",
		Short: "Reconcile a CSV feed and commit it in one transaction",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return withCode(exitUsage, errors.New("exactly one source path is required"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.Load()
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("config: %w", err))
			}
			l := observability.NewStderrLogger(cfg.AppEnv, cfg.LogLevel)
			reg := observability.InitRegistry()
			observability.Serve(cfg.MetricsAddr, reg)
			return runLoad(cmd.Context(), cmd.OutOrStdout(), cfg, opts, args[0], l)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Commit into an in-memory store; nothing touches MySQL or redis")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the load report as one JSON line")
	return cmd
}

func runLoad(ctx context.Context, out io.Writer, cfg shared.Config, opts loadOptions, source string, l zerolog.Logger) error {
	lo := app.LoadOptions{
		Tx:       cfg.Load.Tx(),
		LockKey:  cfg.Load.LockKey,
		Recorder: observability.LoadRecorder{},
		DryRun:   opts.dryRun,
	}

	var store domain.Store
	if opts.dryRun {
		store = memory.New()
	} else {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return withCode(exitStore, fmt.Errorf("open mysql: %w", err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return withCode(exitStore, fmt.Errorf("ping mysql: %w", err))
		}
		store = mysqlrepo.New(db)

		if cfg.RedisAddr != "" {
			rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer rc.Close()
			if err := rc.Ping(ctx); err != nil {
				return withCode(exitStore, fmt.Errorf("ping redis: %w", err))
			}
			lo.Cache = rc
			lo.Locker = rc.Locker()
		}
	}

	rep, err := app.NewLoadService(csvsource.New(), store, lo, l).LoadFromSource(ctx, source)
	if err != nil {
		return withCode(phaseCode(err), err)
	}
	if opts.json {
		return writeJSONLine(out, rep)
	}
	writeSummary(out, rep)
	return nil
}

func phaseCode(err error) int {
	var pe *app.PhaseError
	if !errors.As(err, &pe) {
		return exitCommit
	}
	switch pe.Phase {
	case app.PhaseRead:
		return exitSource
	case app.PhaseLock:
		return exitStore
	default:
		return exitCommit
	}
}

func writeSummary(w io.Writer, rep app.LoadReport) {
	fmt.Fprintf(w, "run %s: %s (%d rows, %d warnings)\n", rep.RunID, rep.Status, rep.Rows, len(rep.Warnings))
	writeCounts(w, "staged", rep.Staged)
	writeCounts(w, "committed", rep.Committed)
}

func writeCounts(w io.Writer, label string, c app.Counts) {
	if len(c) == 0 {
		return
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, c[k]))
	}
	fmt.Fprintf(w, "  %-9s %s\n", label, strings.Join(parts, " "))
}
