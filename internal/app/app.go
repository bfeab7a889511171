package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DmytroLysenko1/Store/internal/client"
	"github.com/DmytroLysenko1/Store/internal/config"
	"github.com/DmytroLysenko1/Store/internal/credential"
	credredis "github.com/DmytroLysenko1/Store/internal/credential/redis"
	"github.com/DmytroLysenko1/Store/internal/event"
	handler "github.com/DmytroLysenko1/Store/internal/handler/http"
	"github.com/DmytroLysenko1/Store/internal/service"
	"github.com/DmytroLysenko1/Store/pkg/health"
	"github.com/DmytroLysenko1/Store/pkg/httpclient"
	pkgkafka "github.com/DmytroLysenko1/Store/pkg/kafka"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
	"github.com/DmytroLysenko1/Store/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing. Propagators are installed even when export is off.
	traceCfg := cfg.Tracing
	traceCfg.Environment = cfg.Environment
	if traceCfg.ServiceName == "" {
		traceCfg.ServiceName = serviceName
	}
	shutdownTracer, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// Credential relayed to the catalogue and feedback services.
	source, err := a.credentialSource(ctx)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	// Downstream clients: retrying transport, then breaker, then credential.
	catalogueDoer := credential.NewDoer(a.downstream("catalogue", cfg.CatalogueTimeout()), source)
	feedbackDoer := credential.NewDoer(a.downstream("feedback", cfg.FeedbackTimeout()), source)

	catalogueEndpoint := client.EndpointConfig{
		BaseURL:    cfg.CatalogueServiceURL,
		PathPrefix: cfg.CataloguePathPrefix,
		Timeout:    cfg.CatalogueTimeout(),
	}
	feedbackEndpoint := client.EndpointConfig{
		BaseURL:    cfg.FeedbackServiceURL,
		PathPrefix: cfg.FeedbackPathPrefix,
		Timeout:    cfg.FeedbackTimeout(),
	}
	products := client.NewHTTPProductClient(catalogueDoer, catalogueEndpoint)
	reviews := client.NewHTTPReviewClient(feedbackDoer, feedbackEndpoint)
	favourites := client.NewHTTPFavouriteClient(feedbackDoer, feedbackEndpoint)

	// Activity events.
	var publisher event.Publisher = event.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger, cfg.KafkaPublishTimeout())
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, activity events disabled")
	}

	productService := service.NewProductPageService(products, reviews, favourites, publisher, logger)

	// Health checks. The storefront can still answer (with errors) while
	// any one of these is away, so none of them is critical.
	probe := &http.Client{Timeout: 2 * time.Second}
	healthHandler := health.NewHandler()
	healthHandler.RegisterNonCritical("catalogue", health.HTTPChecker(probe, cfg.CatalogueServiceURL))
	healthHandler.RegisterNonCritical("feedback", health.HTTPChecker(probe, cfg.FeedbackServiceURL))
	if a.rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// HTTP router.
	bgCtx, stop := context.WithCancel(context.Background())
	a.stopBackground = stop

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(bgCtx, productService, healthHandler, handler.RouterConfig{
		Validator:      middleware.HMACValidator(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORS:           cors,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// downstream builds the retrying, circuit-broken transport for one backend.
func (a *App) downstream(name string, timeout time.Duration) *httpclient.Breaker {
	base := httpclient.New(httpclient.Config{
		Name:            name,
		Timeout:         timeout,
		MaxRetries:      a.cfg.HTTPMaxRetries,
		RetryWaitMin:    time.Duration(a.cfg.HTTPRetryWaitMinMs) * time.Millisecond,
		RetryWaitMax:    time.Duration(a.cfg.HTTPRetryWaitMaxMs) * time.Millisecond,
		MaxConnsPerHost: a.cfg.HTTPMaxConnsPerHost,
	})
	return httpclient.NewBreaker(base, httpclient.BreakerConfig{
		Name:         name,
		MaxRequests:  a.cfg.CBMaxRequests,
		Interval:     time.Duration(a.cfg.CBInterval) * time.Second,
		OpenFor:      time.Duration(a.cfg.CBTimeout) * time.Second,
		FailureRatio: a.cfg.CBFailureRatio,
		MinRequests:  a.cfg.CBMinRequests,
	}, a.logger).WithFallback(httpclient.UnavailableFallback(name))
}

func (a *App) credentialSource(ctx context.Context) (credential.Source, error) {
	if a.cfg.CredentialMode == config.CredentialPassthrough {
		a.logger.Info("relaying customer credentials unchanged")
		return credential.Passthrough{}, nil
	}

	var store credential.Store
	if a.cfg.UsesRedis() {
		rdb, err := credredis.Connect(ctx, credredis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPass,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		store = credredis.NewStore(a.rdb)
	} else {
		store = credential.NewMemoryStore()
	}

	exchange := credential.NewTokenExchange(
		httpclient.New(httpclient.Config{
			Name:            "token",
			Timeout:         a.cfg.FeedbackTimeout(),
			MaxConnsPerHost: a.cfg.HTTPMaxConnsPerHost,
		}),
		credential.ExchangeConfig{
			URL:          a.cfg.TokenURL,
			ClientID:     a.cfg.TokenClientID,
			ClientSecret: a.cfg.TokenClientSecret,
			Audience:     a.cfg.TokenAudience,
			Scope:        a.cfg.TokenScope,
			DefaultTTL:   time.Duration(a.cfg.TokenDefaultTTLSeconds) * time.Second,
		},
	)
	a.logger.Info("exchanging customer credentials",
		slog.String("store", a.cfg.CredentialStore),
	)
	skew := time.Duration(a.cfg.CredentialSkewSeconds) * time.Second
	return credential.NewCache(store, exchange, skew, a.logger), nil
}

// Handler exposes the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: the HTTP server first so no
// request is left without its backends, then the event producer, Redis and
// the tracer.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.close(ctx)
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("kafka producer: %w", err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
