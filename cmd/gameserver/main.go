// Package main provides the holdout server binary: it hosts one wave-based combat
// session and exposes its state on a gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/holdout/internal/config"
	"github.com/cory-johannsen/holdout/internal/gameserver"
	"github.com/cory-johannsen/holdout/internal/observability"
	"github.com/cory-johannsen/holdout/internal/server"
	"github.com/cory-johannsen/holdout/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthInterval := flag.Duration("store-health", 30*time.Second, "wave history store health check interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	logger.Info("starting holdout server",
		zap.String("waves", cfg.Session.WavesFile),
		zap.String("storage", cfg.Session.Storage),
	)

	sess, cleanup, err := initSession(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building session", zap.Error(err))
	}
	defer cleanup()
	defer sess.Close()

	startWave, err := sess.Begin(ctx)
	if err != nil {
		logger.Fatal("beginning session", zap.Error(err))
	}

	loop := gameserver.NewTickLoop(cfg.GameServer.TickInterval())
	loop.Register("session", sess.Tick)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("tick", &server.FuncService{
		StartFn: loop.Start,
		StopFn:  loop.Stop,
	})

	if rec := sess.Recorder(); rec != nil {
		lifecycle.Add("recorder", &server.FuncService{
			StartFn: rec.Start,
			StopFn:  rec.Stop,
		})
	}

	if hc, ok := sess.Store().(storage.HealthChecker); ok {
		lifecycle.Add("store-health", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				ticker := time.NewTicker(*healthInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := hc.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("wave history store health check failed", zap.Error(err))
						}
					}
				}
			},
		})
	}

	if cfg.GameServer.GRPCPort > 0 {
		grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthpb.RegisterHealthServer(grpcServer, sess.HealthServer())
		lifecycle.Add("grpc", gameserver.NewGRPCService(cfg.GameServer.Addr(), grpcServer, logger))
	}

	logger.Info("holdout server initialized",
		zap.String("session_id", sess.ID.String()),
		zap.Int("start_wave", startWave),
		zap.Duration("tick", cfg.GameServer.TickInterval()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
