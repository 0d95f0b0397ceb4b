// Package config loads service configuration from environment variables,
// with a .env file picked up when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/spotlight"
)

// Configuration holds every runtime setting of the insight service.
type Configuration struct {
	// HTTP server configuration
	HTTPPort          int
	HTTPEnableMetrics bool

	// AMQP configuration
	AMQPUrl         string
	TranscriptQueue string
	AnalyticsQueue  string

	// Analysis configuration
	LexiconFile         string
	BatchWorkers        int
	AggregationInterval time.Duration

	// Spotlight rule thresholds
	Spotlight spotlight.Config

	// Logging
	LogLevel logrus.Level
}

// LoadConfig loads the service configuration from environment variables.
func LoadConfig(logger *logrus.Logger) (*Configuration, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables only")
	}

	config := &Configuration{}

	config.HTTPPort = intEnv(logger, "HTTP_PORT", 8080)
	config.HTTPEnableMetrics = os.Getenv("HTTP_ENABLE_METRICS") != "false"

	config.AMQPUrl = os.Getenv("AMQP_URL")
	config.TranscriptQueue = stringEnv("AMQP_TRANSCRIPT_QUEUE", "careinsight.transcripts")
	config.AnalyticsQueue = stringEnv("AMQP_ANALYTICS_QUEUE", "careinsight.analytics")
	if config.AMQPUrl == "" {
		logger.Warn("AMQP_URL not set, broker intake and publishing disabled")
	}

	config.LexiconFile = os.Getenv("LEXICON_FILE")
	config.BatchWorkers = intEnv(logger, "BATCH_WORKERS", 0)

	intervalEnv := os.Getenv("AGGREGATION_INTERVAL")
	if intervalEnv == "" {
		config.AggregationInterval = 5 * time.Minute
	} else {
		interval, err := time.ParseDuration(intervalEnv)
		if err != nil || interval <= 0 {
			logger.WithField("value", intervalEnv).Warn("Invalid AGGREGATION_INTERVAL, defaulting to 5m")
			interval = 5 * time.Minute
		}
		config.AggregationInterval = interval
	}

	config.Spotlight = spotlight.DefaultConfig()
	config.Spotlight.EmergingIssuePct = floatEnv(logger, "SPOTLIGHT_EMERGING_PCT", config.Spotlight.EmergingIssuePct)
	config.Spotlight.CriticalPct = floatEnv(logger, "SPOTLIGHT_CRITICAL_PCT", config.Spotlight.CriticalPct)
	config.Spotlight.ResolutionRateFloor = floatEnv(logger, "SPOTLIGHT_RESOLUTION_FLOOR", config.Spotlight.ResolutionRateFloor)
	config.Spotlight.MinOccurrences = intEnv(logger, "SPOTLIGHT_MIN_OCCURRENCES", config.Spotlight.MinOccurrences)

	levelEnv := os.Getenv("LOG_LEVEL")
	if levelEnv == "" {
		config.LogLevel = logrus.InfoLevel
	} else {
		level, err := logrus.ParseLevel(levelEnv)
		if err != nil {
			logger.WithField("value", levelEnv).Warn("Invalid LOG_LEVEL, defaulting to info")
			level = logrus.InfoLevel
		}
		config.LogLevel = level
	}

	return config, nil
}

func stringEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(logger *logrus.Logger, key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logger.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid integer setting, using default")
		return fallback
	}
	return parsed
}

func floatEnv(logger *logrus.Logger, key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid numeric setting, using default")
		return fallback
	}
	return parsed
}
