package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Drive   DriveConfig
	Otel    OtelConfig
}

type AppConfig struct {
	Port                 string
	Environment          string
	LogFilePath          string
	TelemetryLogFilePath string
	CorsAllowedOrigins   string
	BodyLimitBytes       int
	NatsURL              string
	RedisURL             string
}

type StorageConfig struct {
	DonkeyPath   string
	SessionsPath string
	TagsFile     string
	PilotsFile   string
}

type DriveConfig struct {
	PilotTimeout      time.Duration
	VideoPollInterval time.Duration
	VehicleIdleTTL    time.Duration // 0 keeps vehicles for the process lifetime
	JPEGQuality       int
}

// OtelConfig drives the OTLP trace exporter. Tracing stays off unless
// Enabled is set.
type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	donkeyPath := expandHome(getEnv("DONKEY_PATH", "~/mydonkey"))
	sessionsPath := expandHome(getEnv("SESSIONS_PATH", filepath.Join(donkeyPath, "sessions")))

	return &Config{
		App: AppConfig{
			Port:                 getEnv("APP_PORT", "8887"),
			Environment:          getEnv("GO_ENV", "development"),
			LogFilePath:          getEnv("LOG_FILE_PATH", "logs/app.log"),
			TelemetryLogFilePath: getEnv("TELEMETRY_LOG_FILE_PATH", "logs/telemetry.log"),
			CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
			BodyLimitBytes:       getEnvAsInt("BODY_LIMIT_BYTES", 10*1024*1024),
			NatsURL:              getEnv("NATS_URL", ""),
			RedisURL:             getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			DonkeyPath:   donkeyPath,
			SessionsPath: sessionsPath,
			TagsFile:     expandHome(getEnv("TAGS_FILE", filepath.Join(sessionsPath, "tags"))),
			PilotsFile:   expandHome(getEnv("PILOTS_FILE", filepath.Join(donkeyPath, "pilots.yml"))),
		},
		Drive: DriveConfig{
			PilotTimeout:      time.Duration(getEnvAsInt("PILOT_TIMEOUT_MS", 1000)) * time.Millisecond,
			VideoPollInterval: time.Duration(getEnvAsInt("VIDEO_POLL_INTERVAL_MS", 200)) * time.Millisecond,
			VehicleIdleTTL:    time.Duration(getEnvAsInt("VEHICLE_IDLE_TTL_MINUTES", 0)) * time.Minute,
			JPEGQuality:       getEnvAsInt("JPEG_QUALITY", 90),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "donkey-remote-server"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
