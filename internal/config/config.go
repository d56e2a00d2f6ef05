package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the Cobra demos and the VAD stream gateway
type Config struct {
	// Engine configuration
	AccessKey   string `envconfig:"COBRA_ACCESS_KEY" required:"true"`
	LibraryPath string `envconfig:"COBRA_LIBRARY_PATH" default:""` // Explicit library file; overrides the platform lookup
	LibraryDir  string `envconfig:"COBRA_LIBRARY_DIR" default:""`  // Root of the per-platform library tree

	// Voice detection configuration
	VoiceThreshold float32 `envconfig:"COBRA_VOICE_THRESHOLD" default:"0.8"` // Probability at or above which a frame is voiced
	SilenceFrames  int     `envconfig:"COBRA_SILENCE_FRAMES" default:"10"`   // Unvoiced frames that end a speech segment

	// Demo inputs
	WAVPath          string `envconfig:"COBRA_WAV_PATH" default:""`
	AudioDeviceIndex int    `envconfig:"COBRA_AUDIO_DEVICE_INDEX" default:"-1"` // -1 selects the default capture device

	// Server configuration
	Port                  string `envconfig:"PORT" default:"8080"`
	GRPCPort              string `envconfig:"GRPC_PORT" default:"50051"`
	StreamSampleRateMulaw int    `envconfig:"STREAM_SAMPLE_RATE_MULAW" default:"8000"` // Rate of μ-law media stream audio

	// Resilience configuration
	CircuitBreakerMaxFailures  int           `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout time.Duration `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30s"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
	TraceExporter  string `envconfig:"TRACE_EXPORTER" default:"none"`  // none, stdout or otlp
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges envconfig cannot express
func (c *Config) Validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("COBRA_ACCESS_KEY is required")
	}
	if c.VoiceThreshold < 0 || c.VoiceThreshold > 1 {
		return fmt.Errorf("COBRA_VOICE_THRESHOLD must be within [0, 1], got %v", c.VoiceThreshold)
	}
	if c.SilenceFrames < 1 {
		return fmt.Errorf("COBRA_SILENCE_FRAMES must be positive, got %d", c.SilenceFrames)
	}
	if c.StreamSampleRateMulaw <= 0 {
		return fmt.Errorf("STREAM_SAMPLE_RATE_MULAW must be positive, got %d", c.StreamSampleRateMulaw)
	}
	switch c.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("TRACE_EXPORTER must be one of none, stdout, otlp; got %q", c.TraceExporter)
	}
	return nil
}
