// main wires the stores, lifecycle service, HTTP surface, and background
// relay together, then supervises their lifecycles. Business logic lives in
// the internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"turfops/internal/audit"
	"turfops/internal/audit/relay"
	auditmemory "turfops/internal/audit/store/memory"
	auditpostgres "turfops/internal/audit/store/postgres"
	"turfops/internal/equipment/cache"
	equiphandler "turfops/internal/equipment/handler"
	equipmetrics "turfops/internal/equipment/metrics"
	"turfops/internal/equipment/service"
	assetstore "turfops/internal/equipment/store/asset"
	custodystore "turfops/internal/equipment/store/custody"
	"turfops/internal/platform/config"
	"turfops/internal/platform/database"
	"turfops/internal/platform/httpserver"
	"turfops/internal/platform/logger"
	"turfops/internal/platform/middleware"
	"turfops/internal/platform/token"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		assets   service.AssetStore
		custody  service.CustodyStore
		auditSt  audit.Store
		svcOpts  []service.Option
		auditRel *relay.Relay
	)

	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		assets = assetstore.NewPostgres(db)
		custody = custodystore.NewPostgres(db)
		auditSt = auditpostgres.New(db)
		svcOpts = append(svcOpts, service.WithTx(newEquipmentPostgresTx(db)))

		if len(cfg.KafkaBrokers) > 0 {
			auditRel, err = relay.New(db, cfg.KafkaBrokers, log)
			if err != nil {
				log.Error("kafka unavailable", "error", err.Error())
				os.Exit(1)
			}
			defer auditRel.Close()
		}
	} else {
		// No database configured: run fully in memory for local development.
		log.Warn("DATABASE_URL not set, using in-memory stores")
		assets = assetstore.NewInMemory()
		custody = custodystore.NewInMemory()
		auditSt = auditmemory.NewInMemoryStore()
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("redis unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		svcOpts = append(svcOpts, service.WithStatusCache(cache.NewRedis(redisClient)))
	}

	svcOpts = append(svcOpts,
		service.WithMetrics(equipmetrics.New()),
		service.WithLogger(log),
	)

	recorder := audit.NewRecorder(auditSt)
	equipment := service.New(assets, custody, recorder, svcOpts...)
	jwtService := token.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.ContentTypeJSON)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	equiphandler.New(equipment, recorder, jwtService, cfg.AdminToken, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting turfops server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if auditRel != nil {
		g.Go(func() error {
			err := auditRel.Run(gCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
