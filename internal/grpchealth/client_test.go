package grpchealth

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T) (string, *health.Server) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String(), hs
}

func TestCheckServing(t *testing.T) {
	addr, hs := startHealthServer(t)
	hs.SetServingStatus("cobra.VAD", healthpb.HealthCheckResponse_SERVING)

	c := NewClient(addr, "cobra.VAD", 2*time.Second)
	defer c.Close()

	details, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SERVING", details["status"])
	assert.Equal(t, addr, details["target"])
}

func TestCheckNotServing(t *testing.T) {
	addr, hs := startHealthServer(t)
	hs.SetServingStatus("cobra.VAD", healthpb.HealthCheckResponse_SERVING)

	c := NewClient(addr, "cobra.VAD", 2*time.Second)
	defer c.Close()

	hs.Shutdown()

	details, err := c.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, "NOT_SERVING", details["status"])
}

func TestCheckUnknownService(t *testing.T) {
	addr, _ := startHealthServer(t)

	c := NewClient(addr, "missing", 2*time.Second)
	defer c.Close()

	_, err := c.Check(context.Background())
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewClient("127.0.0.1:1", "cobra.VAD", time.Second)
	assert.NoError(t, c.Close())

	_, err := c.connect()
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
