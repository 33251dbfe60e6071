package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sitecrew/sitecrew/internal/api"
	"github.com/sitecrew/sitecrew/internal/app"
	"github.com/sitecrew/sitecrew/internal/audit"
	audithttp "github.com/sitecrew/sitecrew/internal/audit/http"
	"github.com/sitecrew/sitecrew/internal/auth"
	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/backend/gotrue"
	"github.com/sitecrew/sitecrew/internal/backend/memory"
	"github.com/sitecrew/sitecrew/internal/backend/postgres"
	"github.com/sitecrew/sitecrew/internal/backend/redisrt"
	"github.com/sitecrew/sitecrew/internal/calendar"
	jobmetrics "github.com/sitecrew/sitecrew/internal/jobs"
	"github.com/sitecrew/sitecrew/internal/notifications"
	"github.com/sitecrew/sitecrew/internal/observability"
	"github.com/sitecrew/sitecrew/internal/payroll"
	"github.com/sitecrew/sitecrew/internal/platform/cache"
	"github.com/sitecrew/sitecrew/internal/platform/db"
	"github.com/sitecrew/sitecrew/internal/projects"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/realtime"
	"github.com/sitecrew/sitecrew/internal/reports"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
	"github.com/sitecrew/sitecrew/internal/teams"
	"github.com/sitecrew/sitecrew/internal/users"
	"github.com/sitecrew/sitecrew/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	backends := app.SelectBackends(cfg)
	metrics := observability.NewMetrics()
	engine := rbac.NewEngine(nil, logger)

	var (
		tables backend.TableStore
		pool   *pgxpool.Pool
	)
	if backends.Postgres {
		pool, err = db.New(ctx, cfg.PGDSN, db.WithAppName("sitecrew"))
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		tables = postgres.NewStore(pool)
	} else {
		logger.Warn("postgres disabled, using in-memory tables")
		tables = memory.NewTables()
	}

	var (
		redisClient *redis.Client
		states      *shared.StateStore
		feed        backend.Realtime
	)
	if backends.Redis {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		states = shared.NewStateStore(redisClient, cfg.StateTTL)
		changes := redisrt.NewFeed(redisClient, logger)
		tables = redisrt.NewPublishingStore(tables, changes)
		feed = changes
	} else {
		logger.Warn("redis disabled, state is not persisted and the change feed is local")
		feed = memory.NewFeed()
	}

	authOpts := []gotrue.Option{gotrue.WithLogger(logger)}
	if states != nil {
		authOpts = append(authOpts, gotrue.WithStorage(gotrue.NewStateStorage(states, cfg.StateKey)))
	}
	provider := gotrue.New(gotrue.Config{
		BaseURL:    cfg.AuthURL,
		AnonKey:    cfg.AuthAnonKey,
		Timeout:    cfg.AuthTimeout,
		RetryCount: 2,
	}, authOpts...)

	st := store.New(store.WithLogger(logger))

	var sink audit.Sink
	switch {
	case cfg.AuditMode == app.AuditModeQueue && backends.Redis:
		client, err := jobs.NewClient(cache.QueueOpts(cfg.RedisAddr), jobmetrics.NewMetrics(metrics.Registerer()))
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()
		sink = client
	case pool != nil:
		sink = shared.NewAuditLogger(pool)
	default:
		sink = audit.NewTableSink(tables)
	}
	interceptor := audit.NewInterceptor(sink, audit.WithLogger(logger), audit.WithMetrics(metrics))
	defer interceptor.Wait()

	syncer := realtime.NewCoordinator(feed, st,
		realtime.WithPlan(realtime.PlanByName(cfg.RealtimePlan, engine)),
		realtime.WithEngine(engine),
		realtime.WithGauge(metrics),
		realtime.WithLogger(logger),
	)
	defer syncer.Close()

	st.Subscribe(interceptor)
	st.Subscribe(syncer)
	if states != nil {
		persister := store.NewPersister(states, cfg.StateKey, logger)
		if err := persister.Rehydrate(ctx, st); err != nil {
			logger.Warn("rehydrate state", slog.Any("error", err))
		}
		st.Subscribe(persister)
	}

	coordinator := auth.NewCoordinator(provider, tables, st, logger)
	if _, err := coordinator.InitializeAuth(ctx); err != nil {
		logger.Warn("initialize auth", slog.Any("error", err))
	}

	guard := api.NewGuard(st)
	rbacMiddleware := rbac.Middleware{Engine: engine, Resolve: guard.RoleResolver(), Logger: logger}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(cache.QueueOpts(cfg.RedisAddr))
		defer inspector.Close()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,

		APIHandler: api.NewHandler(st, coordinator, engine, guard,
			api.WithLogger(logger), api.WithSignInLimit(cfg.SignInRateLimit)),
		ProjectsHandler:      projects.NewHandler(logger, projects.NewService(tables, st, engine, logger), rbacMiddleware),
		TeamsHandler:         teams.NewHandler(logger, teams.NewService(tables, st, engine, logger), rbacMiddleware),
		PayrollHandler:       payroll.NewHandler(logger, payroll.NewService(tables, st, engine, logger), rbacMiddleware),
		NotificationsHandler: notifications.NewHandler(logger, notifications.NewService(tables, st, logger)),
		CalendarHandler:      calendar.NewHandler(logger, calendar.NewService(tables, st, engine, logger), rbacMiddleware),
		ReportsHandler:       reports.NewHandler(logger, reports.NewService(tables, st, engine, logger), rbacMiddleware),
		UsersHandler:         users.NewHandler(logger, users.NewService(users.NewRepository(tables), st, engine, logger), rbacMiddleware),
		AuditHandler:         audithttp.NewHandler(logger, audit.NewService(tables), guard.Identity),
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
