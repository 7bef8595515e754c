package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"hsi_service/internal/api"
	"hsi_service/internal/config"
	"hsi_service/internal/core"
	"hsi_service/internal/domain/repository"
	"hsi_service/internal/infrastructure/influx"
)

var configPath = flag.String("config", "", "Path to the YAML configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader, err := repository.NewCollectionReader(cfg.Cache.Size)
	if err != nil {
		log.Fatalf("Failed to create collection reader: %v", err)
	}

	// Statistics recorders
	var recorders core.MultiRecorder
	var history core.StatsHistory
	if cfg.Recorder.Driver != "" {
		db, err := repository.OpenStatsDB(cfg.Recorder.Driver, cfg.Recorder.DSN)
		if err != nil {
			log.Fatalf("Failed to open stats database: %v", err)
		}
		defer db.Close()

		sqlRecorder := repository.NewSQLStatsRecorder(db)
		if err := sqlRecorder.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate stats database: %v", err)
		}
		recorders = append(recorders, sqlRecorder)
		history = sqlRecorder
		log.Printf("Recording statistics to %s", cfg.Recorder.Driver)
	}
	if cfg.Recorder.Influx.URL != "" {
		writer := influx.NewStatsWriter(influx.Config{
			URL:    cfg.Recorder.Influx.URL,
			Token:  cfg.Recorder.Influx.Token,
			Org:    cfg.Recorder.Influx.Org,
			Bucket: cfg.Recorder.Influx.Bucket,
		})
		defer writer.Close()
		recorders = append(recorders, writer)
		log.Printf("Exporting statistics to InfluxDB at %s", cfg.Recorder.Influx.URL)
	}
	var recorder repository.StatsRecorder
	if len(recorders) > 0 {
		async := core.NewAsyncRecorder(recorders, cfg.Recorder.QueueSize, cfg.Recorder.Timeout)
		defer async.Close()
		recorder = async
	}

	var harbours core.HarbourSource
	if cfg.Overpass.Endpoint != "" {
		harbours = repository.NewOverpassRepository(cfg.Overpass.Endpoint, cfg.Overpass.MaxParallel, cfg.Overpass.Timeout)
	}

	predictionService := core.NewPredictionService(cfg.Data.PredictionsDir, reader, recorder, history, harbours)
	if !predictionService.Initialize(ctx) {
		log.Printf("Monthly predictions not ready, retrying every %s", cfg.Data.RetryInterval)
		go predictionService.KeepInitializing(ctx, cfg.Data.RetryInterval)
	}

	var observationService *core.ObservationService
	observations, err := repository.ScanObservations(cfg.Data.ObservationsDir)
	if err != nil {
		log.Printf("Historical observations disabled: %v", err)
	} else {
		observationService = core.NewObservationService(observations, reader, recorder)
		log.Printf("Historical observations: %d months in %s", observations.TotalMonths(), cfg.Data.ObservationsDir)
	}

	mux := http.NewServeMux()
	handler := api.NewHandler(predictionService, observationService, cfg.Overpass.RadiusKm)
	handler.Register(mux)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.LogRequests(api.CORS(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
