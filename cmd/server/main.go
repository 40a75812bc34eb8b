package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kitchenledger/backend/config"
	httpDelivery "github.com/kitchenledger/backend/internal/delivery/http"
	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/infrastructure/cache"
	"github.com/kitchenledger/backend/internal/infrastructure/memstore"
	"github.com/kitchenledger/backend/internal/infrastructure/postgres"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting KitchenLedger backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Type),
	)

	matchCfg, err := config.LoadMatchConfig(cfg.Matching.ConfigFile)
	if err != nil {
		return err
	}
	log.Info("match configuration loaded",
		zap.String("version", matchCfg.Version()),
		zap.Any("thresholds", matchCfg.Thresholds()),
		zap.Any("weights", matchCfg.Weights()),
	)

	items, mappings, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	matchCache, closeCache, err := openCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	normalizer := usecase.NewTextNormalizer(matchCfg)
	metric := usecase.SelectStringSimilarity(cfg.Matching.StringMetric, log)
	calculator := usecase.NewSimilarityCalculator(matchCfg, normalizer, metric)
	matcher := usecase.NewFuzzyItemMatcher(matchCfg, calculator, items, log, cfg.Matching.CandidateCap)
	mapper := usecase.NewVendorItemMapper(matchCfg, matcher, items, mappings, log)
	converter := usecase.NewUnitConverter(log)

	match := usecase.NewMatchService(matcher, matchCache, usecase.MatchServiceConfig{CacheTTL: cfg.Cache.TTL}, log)
	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Match:     match,
		Invoices:  usecase.NewInvoiceService(mapper, converter, items, mappings, match, log),
		Recipes:   usecase.NewRecipeCostService(converter, log),
		Converter: converter,
	}, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openStore returns the item and mapping repositories for the configured driver
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (domain.CandidateRepository, domain.MappingRepository, func(), error) {
	if cfg.Driver != "postgres" {
		log.Warn("using in-memory store, data is lost on restart")
		store := memstore.New()
		return store, store, func() {}, nil
	}

	db, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		log.Info("database schema migrated")
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}
	return postgres.NewItemRepository(db, log), postgres.NewMappingRepository(db, log), closeDB, nil
}

// openCache returns the match preview cache for the configured type
func openCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (domain.CacheRepository, func(), error) {
	if cfg.Type != "redis" {
		mem := cache.NewMemoryCache()
		return mem, func() { _ = mem.Close() }, nil
	}

	redisCfg, err := cache.RedisConfigFromURL(cfg.RedisURL, "kitchenledger:")
	if err != nil {
		return nil, nil, err
	}
	rc, err := cache.NewRedisCache(ctx, redisCfg, log)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warn("closing redis", zap.Error(err))
		}
	}, nil
}
