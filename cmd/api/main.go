// Package main is the entry point for the Placebook API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/pkordes/placebook/internal/cache"
	"github.com/pkordes/placebook/internal/config"
	"github.com/pkordes/placebook/internal/handler"
	"github.com/pkordes/placebook/internal/logger"
	"github.com/pkordes/placebook/internal/metrics"
	"github.com/pkordes/placebook/internal/middleware"
	"github.com/pkordes/placebook/internal/repo"
	"github.com/pkordes/placebook/internal/repo/memstore"
	"github.com/pkordes/placebook/internal/repo/mongostore"
	"github.com/pkordes/placebook/internal/service"
	"github.com/pkordes/placebook/migrations"
)

// stores is the set of repositories one backend provides.
type stores struct {
	places     repo.PlaceRepo
	ratings    repo.RatingRepo
	hearts     repo.HeartRepo
	aggregates repo.AggregateSource
	close      func()
}

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// The configured logger needs the config; report with a plain one.
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// --- Store ------------------------------------------------------------
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	// --- Aggregate cache --------------------------------------------------
	// Without REDIS_ADDR the services compute aggregates on every request.
	var aggCache service.AggregateCache
	if rdb := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword); rdb != nil {
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		aggCache = cache.NewAggregates(rdb, cfg.AggregateCacheTTL)
		log.Info("aggregate cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.AggregateCacheTTL))
	}

	// --- Services ---------------------------------------------------------
	srv := handler.NewServer(
		service.NewPlaceService(st.places, st.ratings, aggCache),
		service.NewSearchService(st.places),
		service.NewAggregateService(st.aggregates, st.places, aggCache),
		service.NewHeartService(st.hearts, st.places),
		service.NewRatingService(st.ratings, st.places, aggCache),
	)

	// --- Router -----------------------------------------------------------
	// RequestID must run before the logger so every line carries it.
	// Identity runs last so a bad token is still logged and counted.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewZapLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewIdentity([]byte(cfg.JWTSecret)))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server starting", zap.String("addr", httpSrv.Addr), zap.String("store", cfg.StoreDriver))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

// openStores connects the backend named by cfg.StoreDriver.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		// pgxpool.New does not open connections immediately; Ping does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("database connection established")

		if cfg.AutoMigrate {
			applied, err := migrations.Up(ctx, stdlib.OpenDBFromPool(pool))
			if err != nil {
				pool.Close()
				return stores{}, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", zap.Int64s("versions", applied))
		}

		return stores{
			places:     repo.NewPlaceRepo(pool),
			ratings:    repo.NewRatingRepo(pool),
			hearts:     repo.NewHeartRepo(pool),
			aggregates: repo.NewAggregateSource(pool),
			close:      pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return stores{}, fmt.Errorf("connect mongo: %w", err)
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(ctx, nil); err != nil {
			disconnect()
			return stores{}, fmt.Errorf("ping mongo: %w", err)
		}

		ms := mongostore.New(client.Database(cfg.MongoDatabase))
		if err := ms.EnsureIndexes(ctx); err != nil {
			disconnect()
			return stores{}, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info("mongo connection established", zap.String("database", cfg.MongoDatabase))

		return stores{
			places:     ms.Places(),
			ratings:    ms.Ratings(),
			hearts:     ms.Hearts(),
			aggregates: ms.Aggregates(),
			close:      disconnect,
		}, nil

	default:
		log.Warn("using in-memory store; data is lost on restart")
		ms := memstore.New()
		return stores{
			places:     ms.Places(),
			ratings:    ms.Ratings(),
			hearts:     ms.Hearts(),
			aggregates: ms.Aggregates(),
			close:      func() {},
		}, nil
	}
}
