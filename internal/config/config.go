// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/persistence"
	"github.com/hupe1980/vecsight/scaler"
	"github.com/hupe1980/vecsight/snapshot"
)

// Blob store backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinIO  = "minio"
)

// Config holds all configuration of the vecsight process.
type Config struct {
	// Server settings
	Addr         string
	WatchDir     string
	VectorsFile  string
	MetadataFile string
	LogLevel     string
	LogFormat    string

	// Build settings
	ProjectionNeighbors  int
	ProjectionDimensions int
	ProjectionEpochs     int
	ProjectionSeed       int64
	Supervised           bool
	OutlierNeighbors     int
	OutlierThreshold     float64
	Metric               string
	BuildTimeout         time.Duration
	MemoryLimitBytes     int64
	TriggersPerSecond    float64
	IOLimitBytesPerSec   int64
	ScalerPolicy         string
	SnapshotHistory      int

	// Metadata field names
	CategoryField   string
	TextField       string
	MarketField     string
	TimestampField  string
	ConfidenceField string
	IDField         string

	// Novelty settings
	NoveltyNeighbors int
	NoveltyThreshold float64 // 0 = unclassified scores
	Standardize      bool
	TimeBucket       string

	// Reference model storage
	BlobBackend    string
	DataDir        string
	ReferenceName  string
	Compression    string
	Codec          string
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:         getEnv("VECSIGHT_ADDR", ":8080"),
		WatchDir:     os.Getenv("VECSIGHT_WATCH_DIR"),
		VectorsFile:  getEnv("VECSIGHT_VECTORS_FILE", "vectors.csv"),
		MetadataFile: getEnv("VECSIGHT_METADATA_FILE", "metadata.csv"),
		LogLevel:     getEnv("VECSIGHT_LOG_LEVEL", "info"),
		LogFormat:    getEnv("VECSIGHT_LOG_FORMAT", "text"),

		ProjectionNeighbors:  getEnvInt("VECSIGHT_PROJECTION_NEIGHBORS", 15),
		ProjectionDimensions: getEnvInt("VECSIGHT_PROJECTION_DIMENSIONS", 2),
		ProjectionEpochs:     getEnvInt("VECSIGHT_PROJECTION_EPOCHS", 200),
		ProjectionSeed:       int64(getEnvInt("VECSIGHT_PROJECTION_SEED", 42)),
		Supervised:           getEnvBool("VECSIGHT_SUPERVISED", false),
		OutlierNeighbors:     getEnvInt("VECSIGHT_OUTLIER_NEIGHBORS", 10),
		OutlierThreshold:     getEnvFloat("VECSIGHT_OUTLIER_THRESHOLD", 1.5),
		Metric:               getEnv("VECSIGHT_METRIC", "euclidean"),
		BuildTimeout:         getEnvDuration("VECSIGHT_BUILD_TIMEOUT", 10*time.Minute),
		MemoryLimitBytes:     int64(getEnvInt("VECSIGHT_MEMORY_LIMIT_BYTES", 0)),
		TriggersPerSecond:    getEnvFloat("VECSIGHT_TRIGGERS_PER_SECOND", 0),
		IOLimitBytesPerSec:   int64(getEnvInt("VECSIGHT_IO_LIMIT_BYTES_PER_SEC", 0)),
		ScalerPolicy:         getEnv("VECSIGHT_SCALER_POLICY", "reject"),
		SnapshotHistory:      getEnvInt("VECSIGHT_SNAPSHOT_HISTORY", snapshot.DefaultHistory),

		CategoryField:   getEnv("VECSIGHT_CATEGORY_FIELD", dataset.DefaultCategoryField),
		TextField:       getEnv("VECSIGHT_TEXT_FIELD", dataset.DefaultTextField),
		MarketField:     getEnv("VECSIGHT_MARKET_FIELD", dataset.DefaultMarketField),
		TimestampField:  getEnv("VECSIGHT_TIMESTAMP_FIELD", dataset.DefaultTimestampField),
		ConfidenceField: getEnv("VECSIGHT_CONFIDENCE_FIELD", dataset.DefaultConfidenceField),
		IDField:         getEnv("VECSIGHT_ID_FIELD", dataset.DefaultIDField),

		NoveltyNeighbors: getEnvInt("VECSIGHT_NOVELTY_NEIGHBORS", 20),
		NoveltyThreshold: getEnvFloat("VECSIGHT_NOVELTY_THRESHOLD", 0),
		Standardize:      getEnvBool("VECSIGHT_NOVELTY_STANDARDIZE", false),
		TimeBucket:       getEnv("VECSIGHT_TIME_BUCKET", "week"),

		BlobBackend:    getEnv("VECSIGHT_BLOB_BACKEND", BackendLocal),
		DataDir:        getEnv("VECSIGHT_DATA_DIR", "./data"),
		ReferenceName:  getEnv("VECSIGHT_REFERENCE_NAME", "reference.vsm"),
		Compression:    getEnv("VECSIGHT_COMPRESSION", "zstd"),
		Codec:          getEnv("VECSIGHT_CODEC", "go-json"),
		S3Bucket:       os.Getenv("VECSIGHT_S3_BUCKET"),
		S3Prefix:       os.Getenv("VECSIGHT_S3_PREFIX"),
		S3Region:       os.Getenv("VECSIGHT_S3_REGION"),
		MinIOEndpoint:  os.Getenv("VECSIGHT_MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("VECSIGHT_MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("VECSIGHT_MINIO_SECRET_KEY"),
		MinIOBucket:    os.Getenv("VECSIGHT_MINIO_BUCKET"),
		MinIOUseSSL:    getEnvBool("VECSIGHT_MINIO_USE_SSL", true),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and the presence of backend-specific settings.
func (c *Config) Validate() error {
	if c.ProjectionDimensions != 2 && c.ProjectionDimensions != 3 {
		return fmt.Errorf("VECSIGHT_PROJECTION_DIMENSIONS must be 2 or 3, got %d", c.ProjectionDimensions)
	}
	if c.ProjectionNeighbors < 1 {
		return fmt.Errorf("VECSIGHT_PROJECTION_NEIGHBORS must be positive, got %d", c.ProjectionNeighbors)
	}
	if c.ProjectionEpochs < 1 {
		return fmt.Errorf("VECSIGHT_PROJECTION_EPOCHS must be positive, got %d", c.ProjectionEpochs)
	}
	if c.OutlierNeighbors < 1 {
		return fmt.Errorf("VECSIGHT_OUTLIER_NEIGHBORS must be positive, got %d", c.OutlierNeighbors)
	}
	if !(c.OutlierThreshold > 1) {
		return fmt.Errorf("VECSIGHT_OUTLIER_THRESHOLD must be greater than 1, got %f", c.OutlierThreshold)
	}
	if c.NoveltyNeighbors < 1 {
		return fmt.Errorf("VECSIGHT_NOVELTY_NEIGHBORS must be positive, got %d", c.NoveltyNeighbors)
	}
	if c.NoveltyThreshold < 0 {
		return fmt.Errorf("VECSIGHT_NOVELTY_THRESHOLD must be positive, got %f", c.NoveltyThreshold)
	}
	if c.BuildTimeout < 0 {
		return fmt.Errorf("VECSIGHT_BUILD_TIMEOUT must not be negative, got %s", c.BuildTimeout)
	}
	if c.SnapshotHistory < 0 {
		return fmt.Errorf("VECSIGHT_SNAPSHOT_HISTORY must not be negative, got %d", c.SnapshotHistory)
	}
	if _, err := scaler.ParsePolicy(c.ScalerPolicy); err != nil {
		return fmt.Errorf("VECSIGHT_SCALER_POLICY: %w", err)
	}
	if _, err := distance.ParseMetric(c.Metric); err != nil {
		return fmt.Errorf("VECSIGHT_METRIC: %w", err)
	}
	if _, err := persistence.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("VECSIGHT_COMPRESSION: %w", err)
	}
	if _, err := aggregate.ParseBucket(c.TimeBucket); err != nil {
		return fmt.Errorf("VECSIGHT_TIME_BUCKET: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("VECSIGHT_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	switch c.BlobBackend {
	case BackendLocal, BackendMemory:
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("VECSIGHT_S3_BUCKET is required for the s3 backend")
		}
	case BackendMinIO:
		if c.MinIOEndpoint == "" || c.MinIOBucket == "" {
			return fmt.Errorf("VECSIGHT_MINIO_ENDPOINT and VECSIGHT_MINIO_BUCKET are required for the minio backend")
		}
	default:
		return fmt.Errorf("VECSIGHT_BLOB_BACKEND must be local, memory, s3 or minio, got %q", c.BlobBackend)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
