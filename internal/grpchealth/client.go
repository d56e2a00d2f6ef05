// Package grpchealth probes a standard gRPC health service
// The server uses it to report its own gRPC listener in the readiness check
package grpchealth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// Client holds a lazily established connection to a health service
type Client struct {
	target  string
	service string
	timeout time.Duration

	mu     sync.Mutex
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewClient creates a client for service at target
// No connection is made until the first Check
func NewClient(target, service string, timeout time.Duration) *Client {
	return &Client{
		target:  target,
		service: service,
		timeout: timeout,
	}
}

func (c *Client) connect() (healthpb.HealthClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		// Keepalive settings for long-lived connections
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	conn, err := grpc.NewClient(c.target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", c.target, err)
	}

	c.conn = conn
	c.client = healthpb.NewHealthClient(conn)
	return c.client, nil
}

// Check asks the health service for the status of the configured service
// Returns an error unless the answer is SERVING
func (c *Client) Check(ctx context.Context) (map[string]string, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: c.service})
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	details := map[string]string{
		"target":  c.target,
		"service": c.service,
		"status":  resp.GetStatus().String(),
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return details, fmt.Errorf("service %q is %s", c.service, resp.GetStatus())
	}
	return details, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.client = nil
	return err
}
