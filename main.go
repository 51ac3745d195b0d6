package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/clipcatalog/config"
	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/handlers"
	"github.com/camden-git/clipcatalog/media"
	"github.com/camden-git/clipcatalog/realtime"
	"github.com/camden-git/clipcatalog/repository"
	"github.com/camden-git/clipcatalog/services"
	"github.com/camden-git/clipcatalog/vision"
	"github.com/camden-git/clipcatalog/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	if cfg.DatabaseDriver == database.DriverSQLite {
		dbDir := filepath.Dir(cfg.DatabasePath)
		log.Printf("Ensuring database directory exists: %s", dbDir)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create database directory %s: %v", dbDir, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabaseDriver, cfg.DatabasePath, database.ParseLogLevel(cfg.GormLogLevel))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
		media.AssetTypeExport:    filepath.Base(cfg.ExportsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	folderRepo := repository.NewFolderRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	clipRepo := repository.NewClipRepository(db)
	cameraRepo := repository.NewCameraRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	areaRepo := repository.NewAreaRepository(db)
	detectionRepo, err := repository.NewDetectionRepository(db, cfg.DatabaseDriver)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize detection store: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()
	events := realtime.Fanout{hub}

	var broker *realtime.AMQPBroker
	if cfg.AMQPURL != "" {
		broker, err = realtime.NewAMQPBroker(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue)
		if err != nil {
			log.Fatalf("FATAL: Failed to connect to message broker: %v", err)
		}
		defer broker.Close()
		events = append(events, broker)
	}

	var detector services.ObjectDetector
	if cfg.DetectionEnabled() {
		yolo, err := vision.NewYOLODetector(cfg.YOLOConfigPath, cfg.YOLOWeightsPath, cfg.YOLOClassesPath, float32(cfg.DetectionThreshold))
		if err != nil {
			log.Fatalf("FATAL: Failed to load object detector: %v", err)
		}
		defer yolo.Close()
		detector = yolo
	} else {
		log.Println("Object detection disabled: YOLO model paths not configured")
	}

	videoReader := vision.VideoReader{}
	thumbnailService := services.NewThumbnailService(clipRepo, videoReader, mediaProcessor, cfg.ThumbnailMaxSize)
	detectionService := services.NewDetectionService(clipRepo, detectionRepo, detector, float32(cfg.DetectionThreshold))
	filterService := services.NewFilterService(filterRepo, areaRepo, clipRepo, detectionRepo, folderRepo, mediaProcessor, events)

	log.Printf("Initializing clip processor worker pool (Workers: %d, Queue Size: %d)...", cfg.NumClipWorkers, cfg.ClipQueueSize)
	clipProcessor := workers.NewClipProcessor(thumbnailService, detectionService, events, cfg.ClipQueueSize, cfg.NumClipWorkers)

	ingestService := services.NewIngestService(folderRepo, clipRepo, videoReader, nil, clipProcessor, events)

	if broker != nil {
		go broker.ConsumeDetectionRequests(clipProcessor.HandleDetectionRequest)
	}

	log.Printf("Importing relative paths from root: %s", cfg.RootDirectory)
	log.Printf("Using %s database: %s", cfg.DatabaseDriver, cfg.DatabasePath)
	log.Printf("Storing generated assets in: %s", cfg.MediaStoragePath)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Export-Path"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(corsOptions).Handler)

	api := handlers.API{
		Projects: handlers.NewProjectHandler(projectRepo, clipRepo, filterRepo),
		Folders:  handlers.NewFolderHandler(folderRepo, clipRepo, ingestService, cfg.RootDirectory),
		Clips:    handlers.NewClipHandler(clipRepo, cameraRepo, detectionRepo, clipProcessor),
		Filters:  handlers.NewFilterHandler(filterService),
		Assets:   mediaStore,
		Events:   hub.ServeWS,
	}
	r.Mount("/api", api.Routes())

	serverAddr := cfg.ListenAddr()
	fmt.Printf("Server starting on http://localhost%s\n", serverAddr)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	clipProcessor.Stop()
}
