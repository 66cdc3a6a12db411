// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     grpc
// Description: gRPC client helpers used by the CLI's remote mode
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"time"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig holds gRPC client configuration
type ClientConfig struct {
	Target            string
	MaxMsgSize        int
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration

	// ConnectTimeout bounds Dial's wait for a ready connection; zero
	// returns without waiting
	ConnectTimeout time.Duration
}

// DefaultClientConfig returns a configuration matching DefaultServerConfig
func DefaultClientConfig(target string) ClientConfig {
	return ClientConfig{
		Target:            target,
		MaxMsgSize:        16 << 20,
		KeepaliveInterval: 30 * time.Second,
		KeepaliveTimeout:  10 * time.Second,
		ConnectTimeout:    5 * time.Second,
	}
}

// Dial creates a client connection and waits until it is ready, so an
// unreachable server fails here instead of on the first call
func Dial(ctx context.Context, cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveInterval,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithChainUnaryInterceptor(ClientInterceptor()),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return nil, dialError(err, cfg.Target)
	}
	if cfg.ConnectTimeout <= 0 {
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return conn, nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			conn.Close()
			return nil, dialError(ctx.Err(), cfg.Target).WithDetail("state", state.String())
		}
	}
}

func dialError(err error, target string) *mdwerrors.Error {
	return mdwerrors.Wrap(err, "cannot reach server").
		WithCode(mdwerrors.CodeTransportError).
		WithOperation("grpc.Dial").
		WithDetail("target", target)
}
