package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/application"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/ledger"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/messaging"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/persistence/mysql"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/persistence/redis"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/quote"
	grpcserver "github.com/wyfcoding/portfolioservice/internal/portfolio/interfaces/grpc"
	httpserver "github.com/wyfcoding/portfolioservice/internal/portfolio/interfaces/http"
	"github.com/wyfcoding/portfolioservice/pkg/breaker"
	"github.com/wyfcoding/portfolioservice/pkg/cache"
	"github.com/wyfcoding/portfolioservice/pkg/config"
	"github.com/wyfcoding/portfolioservice/pkg/db"
	"github.com/wyfcoding/portfolioservice/pkg/httpclient"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
	"github.com/wyfcoding/portfolioservice/pkg/middleware"
	"github.com/wyfcoding/portfolioservice/pkg/mq"
	"github.com/wyfcoding/portfolioservice/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

var configPath = flag.String("config", "configs/portfolio/config.toml", "config file path")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("portfolio service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// 3. Metrics
	m := metrics.New("portfolio", nil)

	// 4. Infrastructure
	database, err := db.Init(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	repo := mysql.NewOrderRepository(database.DB)
	if cfg.Database.AutoMigrate {
		if err := repo.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	defaultFee := domain.DefaultOrderFee
	if cfg.Settlement.DefaultOrderFee != "" {
		if defaultFee, err = decimal.NewFromString(cfg.Settlement.DefaultOrderFee); err != nil {
			return fmt.Errorf("invalid settlement.default_order_fee: %w", err)
		}
	}
	settlerOpts := []application.SettlerOption{application.WithMetrics(m)}

	var rc *cache.RedisCache
	if cfg.Redis.Enabled {
		if rc, err = cache.New(ctx, cfg.Redis); err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		settlerOpts = append(settlerOpts, application.WithIdempotencyStore(redis.NewIdempotencyStore(rc), cfg.Redis.IdempotencyTTL))
	}

	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(cfg.Kafka)
		defer func() { _ = producer.Close() }()
		settlerOpts = append(settlerOpts, application.WithEventPublisher(messaging.NewKafkaEventPublisher(producer)))
	}

	// 5. Downstream Clients
	quotesBreaker := breaker.New("quotes", cfg.Quotes.Breaker, m)
	quoteClient := quote.NewClient(httpclient.New(httpclient.ClientConfig{
		Name:    "quotes",
		BaseURL: cfg.Quotes.BaseURL,
		Timeout: cfg.Quotes.Timeout,
	}), quotesBreaker, m)
	ledgerClient := ledger.NewClient(httpclient.New(httpclient.ClientConfig{
		Name:    "accounts",
		BaseURL: cfg.Accounts.BaseURL,
		Timeout: cfg.Accounts.Timeout,
	}))

	// 6. Application
	aggregator := application.NewAggregator(quoteClient, m)
	settler := application.NewSettler(repo, ledgerClient, defaultFee, settlerOpts...)
	svc := application.NewPortfolioService(repo, aggregator, settler)

	// 7. Interfaces
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)
	if cfg.RateLimit.Enabled {
		var shared goredis.UniversalClient
		if rc != nil {
			shared = rc.Client()
		}
		r.Use(middleware.RateLimitMiddleware(ratelimit.New(cfg.RateLimit, shared)))
	}
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "quotes_breaker": quotesBreaker.State().String()}
		if rc != nil {
			if err := rc.Ping(c.Request.Context()); err != nil {
				body["redis"] = err.Error()
			}
		}
		if err := database.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		}
		c.JSON(status, body)
	})
	authed := r.Group("/", middleware.AuthMiddleware(middleware.NewTokenVerifier(cfg.Auth)))
	httpserver.NewPortfolioHandler(svc).RegisterRoutes(authed)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
	))
	healthSrv := grpcserver.NewHealthServer()
	healthSrv.WatchBreaker(grpcserver.QuotesService, quotesBreaker)
	healthSrv.Register(grpcSrv)
	reflection.Register(grpcSrv)

	// 8. Start
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.GRPC.Enabled {
		g.Go(func() error {
			addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			logger.Info(gctx, "gRPC server starting", "addr", addr)
			return grpcSrv.Serve(lis)
		})
	}

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return m.StartHTTPServer(gctx, cfg.Metrics.Port, cfg.Metrics.Path)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down servers...")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
