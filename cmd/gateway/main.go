package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-system/config"
	"inventory-system/internal/cache"
	"inventory-system/internal/database"
	"inventory-system/internal/gateway"
	"inventory-system/internal/health"
	"inventory-system/internal/logger"
	inventory "inventory-system/internal/services/inventory/handler"
	orders "inventory-system/internal/services/orders/handler"
	users "inventory-system/internal/services/user/handler"
	"inventory-system/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "inventory-gateway",
	}); err != nil {
		panic(err)
	}
	log := logger.GetLogger()
	defer log.Sync()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	checker := health.NewChecker(2 * time.Second)
	checker.Register("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}, false)

	store, closeCache := newCacheBackend(cfg.Redis, checker, log)
	defer closeCache()

	jwt := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	services := gateway.Services{
		Users:     users.NewUserHandler(db, jwt, log.Named("users")),
		Inventory: inventory.NewInventoryHandler(db, store, log.Named("inventory")),
		Orders:    orders.NewOrderHandler(db, store, orders.PolicyFor(cfg.Orders.StrictStatusTransitions), log.Named("orders")),
		Health:    checker,
		JWT:       jwt,
	}

	router, err := gateway.NewRouter(services, gateway.Options{RateLimit: cfg.RateLimit.Rate})
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer, healthServer := health.NewGRPCServer()
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for grpc", zap.String("port", cfg.Server.GRPCPort), zap.Error(err))
	}
	go health.NewProber(checker, healthServer, 15*time.Second, log.Named("health")).Run(ctx)
	go func() {
		log.Info("grpc health server listening", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	if err := database.Close(db); err != nil {
		log.Error("failed to close database", zap.Error(err))
	}
}

// newCacheBackend connects to redis when enabled. Without redis the services
// run uncached and the health report shows redis as a degraded component.
func newCacheBackend(cfg config.RedisConfig, checker *health.Checker, log *zap.Logger) (cache.Backend, func()) {
	noClose := func() {}
	if !cfg.Enabled {
		log.Info("redis disabled, caching and order events are off")
		return cache.Noop, noClose
	}

	client, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		checker.Register("redis", func(context.Context) error { return err }, true)
		return cache.Noop, noClose
	}

	store := cache.NewRedisStore(client)
	checker.Register("redis", store.Ping, true)
	return store, func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
