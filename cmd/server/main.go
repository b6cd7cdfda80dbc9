package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"miniml-backend/api/rest/routes"
	"miniml-backend/config"
	"miniml-backend/core/broadcast"
	"miniml-backend/core/catalog"
	"miniml-backend/core/monitoring"
	"miniml-backend/core/repository"
	"miniml-backend/core/simulation"
	"miniml-backend/core/training"
	"miniml-backend/storage"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize dataset persistence
	var persister catalog.Persister
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Printf("Database connected successfully (%s)", db.Driver())
		persister = repository.NewDatasetRepository(db)
	}

	datasetCatalog := catalog.New(persister)
	if n, err := datasetCatalog.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore datasets: %v", err)
	} else if n > 0 {
		log.Printf("Restored %d datasets", n)
	}

	// Initialize stores
	deps := routes.Dependencies{
		Catalog:        datasetCatalog,
		Session:        training.NewSession(),
		Engine:         simulation.NewEngine(simulation.RandomGenerator{}, cfg.MaxPredictions),
		Registry:       broadcast.NewRegistry(cfg.SendTimeout),
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	// Initialize S3 archive
	if cfg.DatasetBucket != "" {
		archive, err := storage.NewS3DatasetArchive(ctx, cfg.AWSRegion, cfg.DatasetBucket, cfg.DatasetPrefix)
		if err != nil {
			log.Fatalf("Failed to initialize dataset archive: %v", err)
		}
		deps.Archive = archive
		log.Printf("Archiving datasets to s3://%s/%s", cfg.DatasetBucket, cfg.DatasetPrefix)
	}
	deps.Metrics = monitoring.NewMetricsExporter(deps.Catalog, deps.Session, deps.Engine, deps.Registry)

	// Start broadcast loop
	loop := broadcast.NewLoop(deps.Engine, deps.Registry, cfg.BroadcastInterval, rand.New(rand.NewSource(time.Now().UnixNano())))
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Start(ctx)
	}()

	// Start status reporter
	if cfg.StatusReportSchedule != "" {
		reporter := monitoring.NewStatusReporter(deps.Catalog, deps.Session, deps.Engine, deps.Registry)
		if err := reporter.Start(cfg.StatusReportSchedule); err != nil {
			log.Fatalf("Failed to start status reporter: %v", err)
		}
		defer reporter.Stop()
	}

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, deps)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           routes.WithCORS(r, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	<-loopDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
