package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/luthier-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/luthier-backend/internal/adapter/http"
	"github.com/simaogato/luthier-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/infrastructure/config"
	"github.com/simaogato/luthier-backend/internal/infrastructure/logger"
	"github.com/simaogato/luthier-backend/internal/infrastructure/metrics"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/dashboard"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
	"github.com/simaogato/luthier-backend/internal/usecase/seeder"
)

const connectAttempts = 5

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx := context.Background()

	// 1. Setup Database
	db, err := connect(ctx, cfg.Database, zapLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Initialize Repositories (Postgres)
	saleRepo := postgres.NewSaleRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	instrumentRepo := postgres.NewInstrumentRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)

	// 3. Initialize Services (Use Cases)
	m := metrics.New("luthier")
	dashboardService := dashboard.NewDashboardService(saleRepo, clientRepo, instrumentRepo, dashboard.Options{
		CatalogTTL: cfg.Cache.CatalogTTL,
		ReportTTL:  cfg.Cache.ReportTTL,
		Metrics:    m,
		Logger:     zapLogger.Named("dashboard"),
	})
	saleService := sale.NewSaleService(saleRepo, instrumentRepo, db, dashboardService, zapLogger.Named("sale"))
	catalogService := catalog.NewCatalogService(clientRepo, instrumentRepo, dashboardService, zapLogger.Named("catalog"))
	connectionService := connection.NewConnectionService(connectionRepo, zapLogger.Named("connection"))
	connectionService.IncludeUnlisted = cfg.Connections.IncludeUnlisted

	if cfg.App.SeedDemo {
		seeded, err := seeder.NewDemoSeeder(instrumentRepo, catalogService, saleService).Seed(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		zapLogger.Info("demo seeding finished", zap.Bool("seeded", seeded))
	}

	defaults := filter.Filters{
		SortColumn:    cfg.Filter.DefaultSortColumn,
		SortDirection: domain.SortDirection(cfg.Filter.DefaultSortDirection),
	}

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(zapLogger.Named("grpc"), m),
			grpcadapter.AuthInterceptor(cfg.GRPC.APIToken),
		),
	)
	grpcadapter.Register(grpcServer, grpcadapter.NewServer(dashboardService, catalogService, saleService, defaults))
	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err)
	}

	// 5. Start HTTP Server
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := httpadapter.RouterConfig{
		Logger:         zapLogger.Named("http"),
		Metrics:        m,
		MetricsHandler: m.Handler(),
		Health:         db.PingContext,
	}
	if cfg.HTTP.RateLimit > 0 {
		routerCfg.RateLimiter = httpadapter.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	}
	handler := httpadapter.NewHandler(dashboardService, saleService, catalogService, connectionService, defaults)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpadapter.NewRouter(handler, routerCfg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		zapLogger.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown
	return waitForShutdown(errCh, grpcServer, httpServer, cfg.HTTP.ShutdownTimeout, zapLogger)
}

// connect opens the database, retrying while Postgres is still starting
func connect(ctx context.Context, cfg config.DatabaseConfig, zapLogger *zap.Logger) (*postgres.DB, error) {
	opts := postgres.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		db, err := postgres.NewDB(attemptCtx, cfg.DSN(), opts)
		cancel()
		if err == nil {
			return db, nil
		}
		lastErr = err
		zapLogger.Warn("database not ready",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

// waitForShutdown waits for SIGTERM, SIGINT or a server failure and stops both servers
func waitForShutdown(
	errCh <-chan error,
	grpcServer *grpclib.Server,
	httpServer *http.Server,
	timeout time.Duration,
	zapLogger *zap.Logger,
) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	var serveErr error
	select {
	case sig := <-sigChan:
		zapLogger.Info("shutting down gracefully", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		zapLogger.Error("server failed, shutting down", zap.Error(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	zapLogger.Info("HTTP server stopped")

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		grpcServer.Stop()
	}
	zapLogger.Info("gRPC server stopped")

	return serveErr
}
