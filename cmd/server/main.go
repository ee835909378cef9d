package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/config"
	"github.com/iliyamo/carshare-web/internal/database"
	"github.com/iliyamo/carshare-web/internal/handler"
	"github.com/iliyamo/carshare-web/internal/middleware"
	"github.com/iliyamo/carshare-web/internal/notify"
	"github.com/iliyamo/carshare-web/internal/query"
	"github.com/iliyamo/carshare-web/internal/queue"
	"github.com/iliyamo/carshare-web/internal/repository"
	"github.com/iliyamo/carshare-web/internal/router"
	"github.com/iliyamo/carshare-web/internal/service"
	"github.com/iliyamo/carshare-web/internal/session"
	"github.com/iliyamo/carshare-web/internal/utils"
	"github.com/iliyamo/carshare-web/internal/validate"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheCfg := config.LoadCacheConfig()
	sessCfg := config.LoadSessionConfig(cfg.SessionSecret)
	queueCfg := config.LoadQueueConfig()
	rlCfg := config.LoadRateLimitConfig()
	checks := map[string]handler.Pinger{}

	// Redis backs the shared cache, sessions and rate limiting.  Without it
	// those fall back to in-process stores or are skipped.
	var rdb *redis.Client
	if cacheCfg.Backend == config.CacheRedis || sessCfg.Backend == config.SessionRedis || rlCfg.Enabled {
		if rdb = config.NewRedisClient(); rdb == nil {
			logger.Warn("redis unavailable; using in-process stores and disabling rate limiting")
		} else {
			defer rdb.Close()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	var cache query.Store = query.NewMemoryStore()
	if cacheCfg.Backend == config.CacheRedis && rdb != nil {
		cache = query.NewRedisStore(rdb, cacheCfg.Prefix, cacheCfg.TTL)
	}

	store, db, err := sessionStore(sessCfg, rdb, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["mysql"] = db.PingContext
		go pruneSessions(ctx, repository.NewSessionRepo(db), sessCfg.PruneEvery, logger)
	}
	sessions := session.NewManager(store, utils.NewSealer(sessCfg.SealKey), sessCfg.TTL, logger)

	// Every notification is logged; with a broker configured it is also
	// published, and optionally consumed into the notification log.
	var notifier notify.Notifier = notify.Logger{Log: logger}
	if queueCfg.URL != "" {
		pub := service.NewPublisher(queueCfg, logger)
		go pub.Run(ctx)
		notifier = notify.Multi{notifier, pub}
		if queueCfg.ConsumerEnabled {
			go func() {
				if err := queue.NewConsumer(queueCfg, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("notification consumer stopped", slog.Any("err", err))
				}
			}()
		}
	}

	var apiOpts []apiclient.Option
	if cfg.APIRESTBaseURL != "" {
		apiOpts = append(apiOpts, apiclient.WithRESTBaseURL(cfg.APIRESTBaseURL))
	}
	api := apiclient.New(cfg.APIBaseURL, apiOpts...)
	qc := query.NewClient(cache,
		query.WithStaleTime(cacheCfg.StaleTime),
		query.WithNotifier(notifier),
		query.WithLogger(logger),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
				logger.LogAttrs(c.Request().Context(), slog.LevelWarn, "request", attrs...)
				return nil
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Metrics())

	router.RegisterRoutes(e, handler.Ready(checks), echo.WrapHandler(promhttp.Handler()))

	v := validate.New()
	pages := e.Group("",
		middleware.CookieStore(middleware.NewCookieStore(cfg.SessionSecret, sessCfg.CookieSecure)),
		middleware.LoadSession(middleware.SessionConfig{
			Secret:  cfg.SessionSecret,
			Manager: sessions,
			API:     api,
			Query:   qc,
			Secure:  sessCfg.CookieSecure,
		}),
		middleware.SessionExpiredRedirect(),
	)
	router.RegisterPages(pages, router.Handlers{
		Auth:    handler.NewAuthHandler(v, router.Rules),
		Cars:    handler.NewCarHandler(v),
		Owner:   handler.NewOwnerHandler(v),
		Admin:   handler.NewAdminHandler(v),
		Tickets: handler.NewTicketHandler(v),
	}, rlCfg, rdb)

	addr := ":" + cfg.Port
	logger.Info("listening",
		slog.String("addr", addr),
		slog.String("env", cfg.Env),
		slog.String("api", cfg.APIBaseURL),
		slog.String("cache", cacheCfg.Backend),
		slog.String("sessions", sessCfg.Backend),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// sessionStore builds the configured backend.  The MySQL backend also
// returns its *sql.DB so the caller can close and health-check it.
func sessionStore(cfg config.SessionConfig, rdb *redis.Client, logger *slog.Logger) (session.Store, *sql.DB, error) {
	switch cfg.Backend {
	case config.SessionMySQL:
		db, err := database.Open(config.LoadDBConfig())
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSessionRepo(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return session.NewMySQLStore(repo), db, nil
	case config.SessionRedis:
		if rdb != nil {
			return session.NewRedisStore(rdb, cfg.Prefix), nil, nil
		}
		logger.Warn("redis session backend selected but redis is unavailable; sessions will not survive restarts")
	}
	return session.NewMemoryStore(), nil, nil
}

// pruneSessions deletes expired MySQL sessions until ctx is done.
func pruneSessions(ctx context.Context, repo *repository.SessionRepo, every time.Duration, logger *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session prune failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions pruned", slog.Int64("count", n))
			}
		}
	}
}
