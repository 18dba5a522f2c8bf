package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/config"
	"github.com/local/pdfpress/internal/encode"
	logpkg "github.com/local/pdfpress/internal/logger"
	"github.com/local/pdfpress/internal/metrics"
	"github.com/local/pdfpress/internal/pipeline"
	"github.com/local/pdfpress/internal/server"
	"github.com/local/pdfpress/internal/statuscheck"
	"github.com/local/pdfpress/internal/storage"
	"github.com/local/pdfpress/internal/store"
)

// redisPinger adapts the go-redis client to the health checker.
type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Status store: Redis when configured, in-memory otherwise.
	var statusStore store.StatusStore
	var pinger statuscheck.RedisPinger
	if cfg.Redis.URL != "" {
		rs, err := store.NewRedisStatus(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init redis status store")
		}
		statusStore = rs
		pinger = redisPinger{c: rs.Client()}
	} else {
		statusStore = store.NewMemoryStatus()
	}
	defer statusStore.Close()

	// Optional S3 delivery of compressed outputs.
	var s3cli *storage.S3Client
	if cfg.S3.Bucket != "" {
		cli, err := storage.NewS3Client(context.Background(), cfg.S3.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init s3 client")
		}
		s3cli = cli
	}

	p := pipeline.New(pipeline.Options{
		Encode: encode.Options{Grayscale: cfg.Pipeline.Grayscale},
	})

	srv := server.New(server.Options{
		Compressor: p,
		Status:     statusStore,
		Checker:    statuscheck.New(statuscheck.Options{Redis: pinger, S3Bucket: cfg.S3.Bucket}),
		Sink: &server.DiskSink{
			Dir:        cfg.Server.ResultDir,
			S3:         s3cli,
			S3Prefix:   cfg.S3.Prefix,
			S3Password: cfg.S3.Password,
		},
		DefaultQuality: cfg.Pipeline.DefaultQuality,
	})

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	srv.Start()
	defer srv.Stop()

	httpSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
