package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	cobra "github.com/lexiqai/cobra-go"
	"github.com/lexiqai/cobra-go/internal/config"
	"github.com/lexiqai/cobra-go/internal/grpchealth"
	"github.com/lexiqai/cobra-go/internal/observability"
	"github.com/lexiqai/cobra-go/internal/stream"
)

const healthService = "cobra.VAD"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := observability.InitTracing(ctx, observability.TraceConfig{
		ServiceVersion: "1.0.0",
		Exporter:       cfg.TraceExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	engine, err := cobra.New(cfg.AccessKey,
		cobra.WithLibraryPath(cfg.LibraryPath),
		cobra.WithLibraryDir(cfg.LibraryDir),
		cobra.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Cobra engine")
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("grpc_port", cfg.GRPCPort).
		Str("engine_version", engine.Version()).
		Int("sample_rate", engine.SampleRate()).
		Int("frame_length", engine.FrameLength()).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Cobra VAD gateway starting")

	mux := http.NewServeMux()

	// Each stream owns a clone so a closing client never tears down the engine
	newDetector := func() (stream.Detector, error) {
		c, err := engine.Clone()
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	mux.HandleFunc("/streams/vad", stream.Handler(newDetector, stream.Config{
		Threshold:           cfg.VoiceThreshold,
		SilenceFrames:       cfg.SilenceFrames,
		MulawSampleRate:     cfg.StreamSampleRateMulaw,
		BreakerMaxFailures:  cfg.CircuitBreakerMaxFailures,
		BreakerResetTimeout: cfg.CircuitBreakerResetTimeout,
	}))

	grpcProbe := grpchealth.NewClient(fmt.Sprintf("localhost:%s", cfg.GRPCPort), healthService, 2*time.Second)
	defer grpcProbe.Close()

	mux.HandleFunc("/health", observability.HealthCheckHandler(engine.Version()))
	mux.HandleFunc("/ready", observability.ReadinessHandler(engine.Version(), map[string]observability.HealthCheckFunc{
		"engine": func(ctx context.Context) (map[string]string, error) {
			c, err := engine.Clone()
			if err != nil {
				return nil, err
			}
			defer c.Close()
			return map[string]string{
				"version":       c.Version(),
				"sample_rate":   strconv.Itoa(c.SampleRate()),
				"frame_length":  strconv.Itoa(c.FrameLength()),
				"open_breakers": strconv.Itoa(observability.CircuitBreakers("engine", "open")),
			}, nil
		},
		"grpc": grpcProbe.Check,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: websocket streams are long lived and set
		// per-message write deadlines instead
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	grpcServer := grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		Time:    10 * time.Second,
		Timeout: 3 * time.Second,
	}))
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		logger.Fatal().Err(err).Str("grpc_port", cfg.GRPCPort).Msg("Failed to listen for gRPC")
	}

	go func() {
		logger.Info().Str("grpc_port", cfg.GRPCPort).Msg("gRPC health service listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error().Err(err).Msg("gRPC server failed")
			stop()
		}
	}()

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/vad", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	grpcServer.GracefulStop()

	if err := observability.ShutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush traces")
	}

	// Streams still draining hold clones; the native engine goes away with
	// the last of them
	if err := engine.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to release Cobra engine")
	}

	logger.Info().Msg("Server exited gracefully")
}
