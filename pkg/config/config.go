package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LogBackendCSV      = "csv"
	LogBackendPostgres = "postgres"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Dataset       DatasetConfig
	ExperimentLog ExperimentLogConfig
	Database      DatabaseConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	DefaultTopK    int
}

type DatasetConfig struct {
	Dir          string
	BaselineFile string
	AdvancedFile string
}

func (d DatasetConfig) BaselinePath() string {
	return filepath.Join(d.Dir, d.BaselineFile)
}

func (d DatasetConfig) AdvancedPath() string {
	return filepath.Join(d.Dir, d.AdvancedFile)
}

type ExperimentLogConfig struct {
	Backend string
	File    string
}

// ExperimentLogPath resolves a relative log file against the dataset dir.
func (c *Config) ExperimentLogPath() string {
	if filepath.IsAbs(c.ExperimentLog.File) {
		return c.ExperimentLog.File
	}
	return filepath.Join(c.Dataset.Dir, c.ExperimentLog.File)
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	topK, err := strconv.Atoi(getEnv("DEFAULT_TOP_K", "3"))
	if err != nil || topK <= 0 {
		return nil, errors.New("invalid default top k")
	}

	timeoutSec, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSec <= 0 {
		return nil, errors.New("invalid request timeout")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "aspect-insight"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: time.Duration(timeoutSec) * time.Second,
			DefaultTopK:    topK,
		},
		Dataset: DatasetConfig{
			Dir:          getEnv("DATA_DIR", filepath.Join("artifacts", "ab_test")),
			BaselineFile: getEnv("MODEL_BASELINE_FILE", "model_baseline.csv"),
			AdvancedFile: getEnv("MODEL_ADVANCED_FILE", "model_advanced2.csv"),
		},
		ExperimentLog: ExperimentLogConfig{
			Backend: getEnv("AB_LOG_BACKEND", LogBackendCSV),
			File:    getEnv("AB_LOG_FILE", "ab_log.csv"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "aspect_insight"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
	}

	switch cfg.ExperimentLog.Backend {
	case LogBackendCSV:
		if cfg.ExperimentLog.File == "" {
			return nil, errors.New("missing ab log file")
		}
	case LogBackendPostgres:
		if cfg.Database.Password == "" {
			return nil, errors.New("missing database password")
		}
	default:
		return nil, fmt.Errorf("unsupported ab log backend %q", cfg.ExperimentLog.Backend)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
