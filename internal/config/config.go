// Package config provides configuration management for the video analysis
// service. Configuration is loaded from environment variables with sensible
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8080
	DefaultLogLevel = "info"
	DefaultDataDir  = ".gcs-video-analysis"

	// Environment variable names
	EnvPort     = "GVA_PORT"
	EnvLogLevel = "GVA_LOG_LEVEL"
	EnvDataDir  = "GVA_DATA_DIR"

	EnvQueueCapacity       = "GVA_QUEUE_CAPACITY"
	EnvCooldownSeconds     = "GVA_COOLDOWN_SECONDS"
	EnvConfidenceThreshold = "GVA_CONFIDENCE_THRESHOLD"
	EnvFrameInterval       = "GVA_FRAME_INTERVAL"

	EnvVideoIntelBaseURL = "GVA_VIDEO_INTEL_BASE_URL"
	EnvVideoIntelAPIKey  = "GVA_VIDEO_INTEL_API_KEY"

	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "GVA_OPENAI_MODEL"

	// Database filename
	DBFilename = "analysis.db"

	// Queue defaults
	DefaultQueueCapacity   = 10
	DefaultCooldownSeconds = 12

	// Aggregation defaults
	DefaultConfidenceThreshold = 0.7
	DefaultFrameInterval       = 0 // disabled
	DefaultTextWindowSeconds   = 5

	// Provider defaults
	DefaultOpenAIModel        = "gpt-4o-mini"
	DefaultAnnotationTimeout  = 600 // seconds
	DefaultAnnotationPollWait = 5   // seconds
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string

	QueueCapacity() int
	Cooldown() time.Duration
	ConfidenceThreshold() float64
	FrameInterval() float64
	TextWindow() float64

	VideoIntelBaseURL() string
	VideoIntelAPIKey() string
	AnnotationTimeout() time.Duration
	AnnotationPollWait() time.Duration

	OpenAIAPIKey() string
	OpenAIBaseURL() string
	OpenAIModel() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	queueCapacity       int
	cooldownSeconds     int
	confidenceThreshold float64
	frameInterval       float64

	videoIntelBaseURL string
	videoIntelAPIKey  string

	openAIAPIKey  string
	openAIBaseURL string
	openAIModel   string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:                DefaultPort,
		logLevel:            DefaultLogLevel,
		dataDir:             defaultDataDir(),
		queueCapacity:       DefaultQueueCapacity,
		cooldownSeconds:     DefaultCooldownSeconds,
		confidenceThreshold: DefaultConfidenceThreshold,
		frameInterval:       DefaultFrameInterval,
		openAIModel:         DefaultOpenAIModel,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if qc := os.Getenv(EnvQueueCapacity); qc != "" {
		capacity, err := strconv.Atoi(qc)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvQueueCapacity, err)
		}
		if capacity < 1 {
			return nil, fmt.Errorf("invalid %s: capacity must be positive", EnvQueueCapacity)
		}
		cfg.queueCapacity = capacity
	}

	if cs := os.Getenv(EnvCooldownSeconds); cs != "" {
		seconds, err := strconv.Atoi(cs)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvCooldownSeconds, err)
		}
		if seconds < 0 {
			return nil, fmt.Errorf("invalid %s: cooldown must not be negative", EnvCooldownSeconds)
		}
		cfg.cooldownSeconds = seconds
	}

	if ct := os.Getenv(EnvConfidenceThreshold); ct != "" {
		threshold, err := strconv.ParseFloat(ct, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvConfidenceThreshold, err)
		}
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("invalid %s: threshold must be in [0,1]", EnvConfidenceThreshold)
		}
		cfg.confidenceThreshold = threshold
	}

	if fi := os.Getenv(EnvFrameInterval); fi != "" {
		interval, err := strconv.ParseFloat(fi, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFrameInterval, err)
		}
		if interval < 0 {
			return nil, fmt.Errorf("invalid %s: interval must not be negative", EnvFrameInterval)
		}
		cfg.frameInterval = interval
	}

	cfg.videoIntelBaseURL = os.Getenv(EnvVideoIntelBaseURL)
	cfg.videoIntelAPIKey = os.Getenv(EnvVideoIntelAPIKey)

	cfg.openAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	cfg.openAIBaseURL = os.Getenv(EnvOpenAIBaseURL)
	if m := os.Getenv(EnvOpenAIModel); m != "" {
		cfg.openAIModel = m
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// QueueCapacity returns the maximum number of jobs the wait list holds
func (c *EnvConfig) QueueCapacity() int {
	return c.queueCapacity
}

// Cooldown returns the mandatory wait between consecutive jobs
func (c *EnvConfig) Cooldown() time.Duration {
	return time.Duration(c.cooldownSeconds) * time.Second
}

// ConfidenceThreshold returns the minimum mean confidence an aggregated
// entity must reach to survive filtering
func (c *EnvConfig) ConfidenceThreshold() float64 {
	return c.confidenceThreshold
}

// FrameInterval returns the timestamp sampling interval in seconds.
// Zero disables sampling and folds every detection.
func (c *EnvConfig) FrameInterval() float64 {
	return c.frameInterval
}

// TextWindow returns the width in seconds of text grouping windows
func (c *EnvConfig) TextWindow() float64 {
	return DefaultTextWindowSeconds
}

func (c *EnvConfig) VideoIntelBaseURL() string {
	return c.videoIntelBaseURL
}

func (c *EnvConfig) VideoIntelAPIKey() string {
	return c.videoIntelAPIKey
}

func (c *EnvConfig) AnnotationTimeout() time.Duration {
	return time.Duration(DefaultAnnotationTimeout) * time.Second
}

func (c *EnvConfig) AnnotationPollWait() time.Duration {
	return time.Duration(DefaultAnnotationPollWait) * time.Second
}

func (c *EnvConfig) OpenAIAPIKey() string {
	return c.openAIAPIKey
}

func (c *EnvConfig) OpenAIBaseURL() string {
	return c.openAIBaseURL
}

func (c *EnvConfig) OpenAIModel() string {
	return c.openAIModel
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
