package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"rentals/internal/adapters/csvsource"
	server "rentals/internal/adapters/http_server"
	"rentals/internal/adapters/observability"
	redisad "rentals/internal/adapters/redis"
	"rentals/internal/app"
	"rentals/internal/domain"
	"rentals/internal/shared"
	mysqlrepo "rentals/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	store := mysqlrepo.New(db)
	opts := app.LoadOptions{
		Tx:       cfg.Load.Tx(),
		LockKey:  cfg.Load.LockKey,
		Recorder: observability.LoadRecorder{},
	}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		cache = rc
		opts.Cache = rc
		opts.Locker = rc.Locker()
	} else {
		log.Warn().Msg("REDIS_ADDR is empty; cache and load lock disabled")
	}
	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	loads := app.NewLoadService(csvsource.New(), store, opts, log.Logger)

	// http
	srv := server.New(log.Logger, cfg.Load.MaxWait+cfg.Load.Timeout+5*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:           q,
		Loads:       loads,
		SourceDir:   cfg.Load.SourceDir,
		LoadLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Load.RatePerMinute)), 1),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
