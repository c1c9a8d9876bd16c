package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/alvinroe04/scheduler/libs/config"
	"github.com/alvinroe04/scheduler/libs/db"
	"github.com/alvinroe04/scheduler/libs/grpcx"
	"github.com/alvinroe04/scheduler/libs/httpx"
	"github.com/alvinroe04/scheduler/libs/kafkax"
	otelx "github.com/alvinroe04/scheduler/libs/otel"
	"github.com/alvinroe04/scheduler/libs/runtime"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/audit"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/handlers"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/outbox"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/policy"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/session"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/storage"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/validation"
)

const grpcServiceName = "scheduler.AppointmentService"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "appointment-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(logger)
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(service)
	if err != nil {
		panic(err)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pol, err := policy.Load(config.String("SCHEDULER_POLICY_FILE", "scheduler.yaml"))
	if err != nil {
		logger.Error("policy load failed", "err", err)
		panic(err)
	}
	loc, err := pol.DisplayLocation()
	if err != nil {
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("db migration failed", "err", err)
		panic(err)
	}

	outboxRepo := outbox.NewRepository()
	appointments := storage.NewAppointmentRepository(pool, outboxRepo, loc)
	customers := storage.NewCustomerRepository(pool, outboxRepo, loc)
	contacts := storage.NewContactRepository(pool)
	users := storage.NewUserRepository(pool)
	regions := storage.NewDivisionRepository(pool)
	auditRepo := audit.NewRepository(pool)

	if err := bootstrapUser(ctx, users, logger); err != nil {
		logger.Error("bootstrap user failed", "err", err)
		panic(err)
	}
	directory := session.NewDirectory()
	if err := directory.Load(ctx, contacts, users); err != nil {
		logger.Error("directory load failed", "err", err)
		panic(err)
	}

	cal := hours.NewCalendar(pol.Hours(), hours.SystemClock{}, loc)
	if err := cal.Initialize(); err != nil {
		logger.Error("business hours init failed", "err", err)
		panic(err)
	}
	hours.StartRefresher(ctx, cal, pol.RefreshCron, loc, logger)
	logger.Info("business hours ready",
		"reference_zone", pol.ReferenceZone,
		"display_zone", loc.String(),
		"open", cal.OpeningTime(time.Now().In(loc).Weekday()).String(),
		"close", cal.ClosingTime(time.Now().In(loc).Weekday()).String(),
	)

	validator := validation.New(cal, loc, pol.MaxTextLength, time.Now)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	tokenTTL, err := config.Duration("JWT_TTL", 8*time.Hour)
	if err != nil {
		panic(err)
	}
	base := handlers.SessionBase{Location: loc, Hours: cal, Directory: directory}
	router := handlers.NewRouter(handlers.Routes{
		Auth: handlers.NewAuthHandler(users, auditRepo, logger, handlers.AuthConfig{
			Secret:   jwtSecret,
			Issuer:   service,
			TokenTTL: tokenTTL,
		}),
		Appointments: handlers.NewAppointmentHandler(appointments, validator, logger, pol.UpcomingWindow, handlers.SlotConfig{
			Length: pol.SlotLength,
			Step:   pol.SlotStep,
		}),
		Customers: handlers.NewCustomerHandler(customers, appointments, logger, time.Now),
		Reports:   handlers.NewReportHandler(appointments, time.Now),
		Lookups:   handlers.NewLookupHandler(regions),
		JWTSecret: jwtSecret,
		Session:   base,
	})

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: brokers == ""},
	}

	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		panic(err)
	}
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB, err := config.Int("REDIS_DB", 0)
		if err != nil {
			panic(err)
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", service))
		rateLimitMW = rl.WithKey(httpx.BearerUserKey(jwtSecret)).Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute).WithKey(httpx.BearerUserKey(jwtSecret))
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/", router)

	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	if err != nil {
		panic(err)
	}
	requestTimeout, err := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		panic(err)
	}
	corsMaxAge, err := config.Duration("CORS_MAX_AGE", 10*time.Minute)
	if err != nil {
		panic(err)
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           corsMaxAge,
		}),
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(bodyLimit)),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "appointments")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	grpcSrv.SetServing(grpcServiceName, true)
	go func() {
		if err := grpcSrv.Serve(ctx, ":"+grpcPort); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// bootstrapUser makes sure the configured operator account exists so the
// first login works against an empty database.
func bootstrapUser(ctx context.Context, users *storage.UserRepository, logger *slog.Logger) error {
	password := config.String("BOOTSTRAP_USER_PASSWORD", "")
	if password == "" {
		logger.Info("no bootstrap user configured")
		return nil
	}
	id, err := config.Int("BOOTSTRAP_USER_ID", 1)
	if err != nil {
		return err
	}
	hash, err := handlers.HashPassword(password)
	if err != nil {
		return err
	}
	name := config.String("BOOTSTRAP_USER_NAME", "admin")
	if err := users.Upsert(ctx, model.User{ID: id, Name: name, PasswordHash: hash}); err != nil {
		return err
	}
	logger.Info("bootstrap user ready", "user_id", id, "user_name", name)
	return nil
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
