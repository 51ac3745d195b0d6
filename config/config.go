package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultExportsSubDir    = "exports"
)

const (
	defaultClipQueueSize      = 200
	defaultNumClipWorkers     = 2
	defaultThumbnailMaxSize   = 320
	defaultDetectionThreshold = 0.5
	defaultPort               = 8080
)

type Config struct {
	// directory that imports are resolved against when a relative path is given
	RootDirectory string

	// database settings
	DatabaseDriver string // sqlite or postgres
	DatabasePath   string // sqlite file or postgres DSN
	GormLogLevel   string

	// media storage configuration
	MediaStoragePath string // primary root for generated assets (thumbs, exports)
	ThumbnailsPath   string
	ExportsPath      string

	ThumbnailMaxSize int

	// worker settings
	ClipQueueSize  int
	NumClipWorkers int

	// YOLO model files; detection is disabled unless all three are set
	YOLOConfigPath     string
	YOLOWeightsPath    string
	YOLOClassesPath    string
	DetectionThreshold float64

	// message broker; empty URL disables it
	AMQPURL          string
	AMQPExchange     string
	AMQPRequestQueue string

	CORSAllowedOrigins []string
	Port               int
}

// DetectionEnabled reports whether every YOLO model file is configured
func (c Config) DetectionEnabled() bool {
	return c.YOLOConfigPath != "" && c.YOLOWeightsPath != "" && c.YOLOClassesPath != ""
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 || val > 1 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	root := getEnvOrDefault("ROOT_DIRECTORY", ".")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for root directory '%s': %w", root, err)
	}

	driver := strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER '%s'", driver)
	}
	dbPath := getEnvOrDefault("DATABASE_PATH", "clips.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	exportSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)

	cfg := Config{
		RootDirectory:      absRoot,
		DatabaseDriver:     driver,
		DatabasePath:       dbPath,
		GormLogLevel:       getEnvOrDefault("GORM_LOG_LEVEL", "warn"),
		MediaStoragePath:   absMediaStorage,
		ThumbnailsPath:     filepath.Join(absMediaStorage, thumbSubDir),
		ExportsPath:        filepath.Join(absMediaStorage, exportSubDir),
		ThumbnailMaxSize:   getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		ClipQueueSize:      getEnvIntOrDefault("CLIP_QUEUE_SIZE", defaultClipQueueSize),
		NumClipWorkers:     getEnvIntOrDefault("NUM_CLIP_WORKERS", defaultNumClipWorkers),
		YOLOConfigPath:     os.Getenv("YOLO_CONFIG_PATH"),
		YOLOWeightsPath:    os.Getenv("YOLO_WEIGHTS_PATH"),
		YOLOClassesPath:    os.Getenv("YOLO_CLASSES_PATH"),
		DetectionThreshold: getEnvFloatOrDefault("DETECTION_THRESHOLD", defaultDetectionThreshold),
		AMQPURL:            os.Getenv("AMQP_URL"),
		AMQPExchange:       getEnvOrDefault("AMQP_EXCHANGE", "clipcatalog.events"),
		AMQPRequestQueue:   getEnvOrDefault("AMQP_REQUEST_QUEUE", "clipcatalog.detections"),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		Port:               getEnvIntOrDefault("PORT", defaultPort),
	}

	return cfg, nil
}
