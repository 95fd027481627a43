package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP       string
	ListenAddrPort     string
	Renderer           string // pdfium or fitz
	RenderWorkers      int    // size of the pdfium instance pool
	JPEGQuality        int
	WebPQuality        int
	MaxUploadMB        int
	ArchiveCompression string // store or deflate
	SessionTTL         time.Duration
	JobRetention       time.Duration
	CleanupInterval    time.Duration
	DatabaseDbname     string // name of the in-memory sqlite job store
	LogFile            string
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	DefaultFormat string
	ServerAPIURL  string
}

// MaxUploadBytes returns the upload limit in bytes
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvPositiveInt is getEnvInt that also rejects zero and negative values
func getEnvPositiveInt(key string, defaultValue int) int {
	if v := getEnvInt(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	serverConfigLive := Load()

	logger.Info("Configuration loaded",
		"address", serverConfigLive.ListenAddrIP,
		"port", serverConfigLive.ListenAddrPort,
		"renderer", serverConfigLive.Renderer,
		"renderWorkers", serverConfigLive.RenderWorkers,
		"maxUploadMB", serverConfigLive.MaxUploadMB)

	if serverConfigLive.ListenAddrIP != "127.0.0.1" && serverConfigLive.ListenAddrIP != "localhost" {
		logger.Warn("Server is not bound to loopback, documents can be uploaded from other machines",
			"address", serverConfigLive.ListenAddrIP)
	}

	return serverConfigLive, logger
}

// Load reads the configuration from environment variables with defaults
func Load() ServerConfig {
	serverConfigLive := ServerConfig{}

	// Server configuration; loopback by default so documents never leave the machine
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "127.0.0.1")
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")

	// Rendering
	serverConfigLive.Renderer = strings.ToLower(getEnv("RENDERER", "pdfium"))
	serverConfigLive.RenderWorkers = getEnvPositiveInt("RENDER_WORKERS", 2)
	serverConfigLive.JPEGQuality = clamp(getEnvInt("JPEG_QUALITY", 92), 1, 100)
	serverConfigLive.WebPQuality = clamp(getEnvInt("WEBP_QUALITY", 80), 1, 100)
	serverConfigLive.MaxUploadMB = getEnvPositiveInt("MAX_UPLOAD_MB", 100)

	serverConfigLive.ArchiveCompression = strings.ToLower(getEnv("ARCHIVE_COMPRESSION", "store"))
	if serverConfigLive.ArchiveCompression != "store" && serverConfigLive.ArchiveCompression != "deflate" {
		serverConfigLive.ArchiveCompression = "store"
	}

	// Housekeeping
	serverConfigLive.SessionTTL = time.Duration(getEnvPositiveInt("SESSION_TTL_MINUTES", 60)) * time.Minute
	serverConfigLive.JobRetention = time.Duration(getEnvPositiveInt("JOB_RETENTION_HOURS", 24)) * time.Hour
	serverConfigLive.CleanupInterval = time.Duration(getEnvPositiveInt("CLEANUP_INTERVAL_MINUTES", 10)) * time.Minute
	serverConfigLive.DatabaseDbname = getEnv("DATABASE_NAME", "pdfpages")
	serverConfigLive.LogFile = getEnv("LOG_FILE", "pdfpages.log")

	// Frontend configuration
	serverConfigLive.FrontEndConfig = FrontEndConfig{
		DefaultFormat: strings.ToLower(getEnv("DEFAULT_FORMAT", "jpeg")),
		ServerAPIURL:  getEnv("SERVER_API_URL", ""),
	}

	return serverConfigLive
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdfpages.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
