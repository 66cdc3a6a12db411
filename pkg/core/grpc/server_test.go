package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testServerConfig() ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Port = 0
	cfg.EnableReflection = false
	return cfg
}

func healthStatus(t *testing.T, addr, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, DefaultClientConfig(addr))
	require.NoError(t, err)
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServer_ServingLifecycle(t *testing.T) {
	srv := NewServer(testServerConfig())
	require.NoError(t, srv.StartAsync())
	addr := srv.Address()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthStatus(t, addr, ""))

	srv.SetServing("structlint.v1.Linter", true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthStatus(t, addr, "structlint.v1.Linter"))

	srv.SetServing("structlint.v1.Linter", false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, healthStatus(t, addr, "structlint.v1.Linter"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}

func TestServer_ServeReturnsNilAfterShutdown(t *testing.T) {
	srv := NewServer(testServerConfig())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	assert.Eventually(t, func() bool { return srv.Address() == lis.Addr().String() }, time.Second, 10*time.Millisecond)
	srv.Shutdown(context.Background())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServer_StartAsyncAddressInUse(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	cfg := testServerConfig()
	cfg.Port = lis.Addr().(*net.TCPAddr).Port

	err = NewServer(cfg).StartAsync()
	require.Error(t, err)
	assert.True(t, mdwerrors.HasCode(err, mdwerrors.CodeTransportError))
}

func TestDial_Unreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	cfg := DefaultClientConfig(addr)
	cfg.ConnectTimeout = 200 * time.Millisecond

	start := time.Now()
	conn, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.True(t, mdwerrors.HasCode(err, mdwerrors.CodeTransportError))
	assert.Less(t, time.Since(start), 5*time.Second)
}
