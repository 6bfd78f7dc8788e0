package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-planner/internal/assistant"
	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/handlers"
	"github.com/benvon/smart-planner/internal/kvstore"
	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/middleware"
	"github.com/benvon/smart-planner/internal/pinning"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/settings"
	"github.com/benvon/smart-planner/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const (
	serviceName = "smart-planner-api"

	// Chat sessions idle for longer than chatSessionTTL are dropped every chatPruneInterval.
	chatSessionTTL    = 30 * time.Minute
	chatPruneInterval = 5 * time.Minute

	settingsKeyPrefix = "planner:settings"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request previews")
	devFlag := flag.Bool("dev", false, "Use human-readable development logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(logger.Options{Service: serviceName, Debug: debugMode, Development: *devFlag})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("default_timezone", cfg.DefaultTimezone),
		zap.Int("max_pinned_goals", cfg.MaxPinnedGoals),
		zap.String("settings_backend", cfg.SettingsBackend),
		zap.Bool("assistant_enabled", cfg.AssistantEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.EnsureSchema(ctx); err != nil {
		zapLogger.Fatal("failed_to_ensure_schema", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = kvstore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		rabbit, err := connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		jobQueue = rabbit
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Warn("rabbitmq_not_configured_jobs_run_inline")
	}

	// Repositories and services
	goalRepo := database.NewGoalRepository(db)
	progressRepo := database.NewProgressRepository(db)
	settingsStore := newSettingsStore(cfg, db, redisClient)
	settingsService := settings.NewService(settingsStore, zapLogger)
	pins := pinning.NewManager(cfg.MaxPinnedGoals, zapLogger)
	cal := cfg.Calendar()

	var jobs handlers.JobEnqueuer
	if jobQueue != nil {
		jobs = jobQueue
	}

	var chatService *assistant.ChatService
	if cfg.AssistantEnabled() {
		provider := assistant.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		chatService = assistant.NewChatService(provider, settingsService, zapLogger)
		go pruneChatSessions(ctx, chatService, zapLogger)
		zapLogger.Info("assistant_enabled", zap.String("model", provider.Model()))
	}

	healthChecker := handlers.NewHealthChecker()
	healthChecker.AddCheck("database", db.HealthCheck)
	if redisClient != nil {
		healthChecker.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	if jobQueue != nil {
		healthChecker.AddCheck("queue", jobQueue.HealthCheck)
	}

	limiterStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r := mux.NewRouter()

	// Middleware registered first wraps outermost.
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.CORSOrigins, zapLogger))
	r.Use(middleware.MaxRequestSizeByPath(middleware.DefaultMaxRequestSize, map[string]int64{
		"/api/v1/tasks/": middleware.MaxTaskRequestSize,
	}))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(middleware.RequireUserID(zapLogger))

	handlers.NewTaskHandler(cal, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	handlers.NewGoalHandler(goalRepo, pins, jobs, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/goals").Subrouter())
	handlers.NewProgressHandler(progressRepo, jobs, cal, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/progress").Subrouter())
	handlers.NewSettingsHandler(settingsService, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/settings").Subrouter())
	if chatService != nil {
		handlers.NewAssistantHandler(chatService, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/assistant").Subrouter())
	}

	// Preflight requests; the CORS middleware has already written the headers.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// newSettingsStore picks the key-value backend for user settings
func newSettingsStore(cfg *config.Config, db *database.DB, redisClient *redis.Client) kvstore.Store {
	if cfg.SettingsBackend == config.SettingsBackendRedis && redisClient != nil {
		return kvstore.NewRedisStore(redisClient, settingsKeyPrefix)
	}
	return database.NewKVRepository(db)
}

// connectQueue connects to RabbitMQ, retrying with exponential backoff while the broker starts
func connectQueue(url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", maxRetries, lastErr)
}

func pruneChatSessions(ctx context.Context, chat *assistant.ChatService, zapLogger *zap.Logger) {
	ticker := time.NewTicker(chatPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := chat.PruneIdle(chatSessionTTL); n > 0 {
				zapLogger.Debug("chat_sessions_pruned", zap.Int("count", n))
			}
		}
	}
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
