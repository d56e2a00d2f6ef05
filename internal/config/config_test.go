package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setRequired sets the required variables and clears the optional ones the
// tests inspect, restoring everything on cleanup.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("COBRA_ACCESS_KEY", "test-access-key")
	for _, key := range []string{
		"COBRA_LIBRARY_PATH", "COBRA_LIBRARY_DIR", "COBRA_VOICE_THRESHOLD", "COBRA_SILENCE_FRAMES",
		"COBRA_WAV_PATH", "COBRA_AUDIO_DEVICE_INDEX", "PORT", "GRPC_PORT", "STREAM_SAMPLE_RATE_MULAW",
		"CIRCUIT_BREAKER_MAX_FAILURES", "CIRCUIT_BREAKER_RESET_TIMEOUT",
		"LOG_LEVEL", "LOG_PRETTY", "METRICS_ENABLED", "TRACE_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		unsetenv(t, key)
	}
}

func unsetenv(t *testing.T, key string) {
	t.Helper()
	if prev, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { os.Setenv(key, prev) })
	}
	os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AccessKey != "test-access-key" {
		t.Errorf("Expected AccessKey 'test-access-key', got '%s'", cfg.AccessKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	unsetenv(t, "COBRA_ACCESS_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when COBRA_ACCESS_KEY is missing")
	}
}

func TestLoad_EmptyAccessKey(t *testing.T) {
	setRequired(t)
	t.Setenv("COBRA_ACCESS_KEY", "")

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "COBRA_ACCESS_KEY") {
		t.Errorf("Expected COBRA_ACCESS_KEY error, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LibraryPath != "" || cfg.LibraryDir != "" {
		t.Errorf("Expected empty library overrides, got %q and %q", cfg.LibraryPath, cfg.LibraryDir)
	}
	if cfg.VoiceThreshold != 0.8 {
		t.Errorf("Expected default VoiceThreshold 0.8, got %f", cfg.VoiceThreshold)
	}
	if cfg.SilenceFrames != 10 {
		t.Errorf("Expected default SilenceFrames 10, got %d", cfg.SilenceFrames)
	}
	if cfg.AudioDeviceIndex != -1 {
		t.Errorf("Expected default AudioDeviceIndex -1, got %d", cfg.AudioDeviceIndex)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.GRPCPort != "50051" {
		t.Errorf("Expected default GRPCPort '50051', got '%s'", cfg.GRPCPort)
	}
	if cfg.StreamSampleRateMulaw != 8000 {
		t.Errorf("Expected default StreamSampleRateMulaw 8000, got %d", cfg.StreamSampleRateMulaw)
	}
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("COBRA_LIBRARY_PATH", "/opt/cobra/libpv_cobra.so")
	t.Setenv("COBRA_VOICE_THRESHOLD", "0.5")
	t.Setenv("CIRCUIT_BREAKER_RESET_TIMEOUT", "2m")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LibraryPath != "/opt/cobra/libpv_cobra.so" {
		t.Errorf("Expected LibraryPath override, got '%s'", cfg.LibraryPath)
	}
	if cfg.VoiceThreshold != 0.5 {
		t.Errorf("Expected VoiceThreshold 0.5, got %f", cfg.VoiceThreshold)
	}
	if cfg.CircuitBreakerResetTimeout != 2*time.Minute {
		t.Errorf("Expected CircuitBreakerResetTimeout 2m, got %s", cfg.CircuitBreakerResetTimeout)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"COBRA_VOICE_THRESHOLD", "1.5"},
		{"COBRA_VOICE_THRESHOLD", "loud"},
		{"COBRA_SILENCE_FRAMES", "0"},
		{"STREAM_SAMPLE_RATE_MULAW", "-8000"},
		{"TRACE_EXPORTER", "jaeger"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30*time.Second {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30s, got %s", cfg.CircuitBreakerResetTimeout)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}

	if cfg.TraceExporter != "none" {
		t.Errorf("Expected default TraceExporter 'none', got '%s'", cfg.TraceExporter)
	}

	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("Expected default OTLPEndpoint 'localhost:4317', got '%s'", cfg.OTLPEndpoint)
	}
}
