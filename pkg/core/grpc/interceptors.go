// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     grpc
// Description: Server and client interceptors: panic recovery, request ids,
//              request logging and error code mapping
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"github.com/msto63/structlint/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var interceptorLogger = logging.New("grpc")

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader string     = "x-request-id"
)

// recovered turns a recovered panic into an Internal status
func recovered(kind string, r interface{}) error {
	interceptorLogger.Error("gRPC panic recovered", "kind", kind, "panic", r, "stack", string(debug.Stack()))
	return status.Error(codes.Internal, "internal server error")
}

// logCall logs one finished call at info level on the server side and
// debug level on the client side
func logCall(side, method, requestID string, start time.Time, err error) {
	kv := []interface{}{
		"method", method,
		"status", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if requestID != "" {
		kv = append(kv, "request_id", requestID)
	}
	if side == "client" {
		interceptorLogger.Debug("gRPC call", kv...)
		return
	}
	interceptorLogger.Info("gRPC "+side, kv...)
}

// RecoveryInterceptor recovers from panics in unary handlers
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered("unary", r)
			}
		}()
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor recovers from panics in stream handlers
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered("stream", r)
			}
		}()
		return handler(srv, ss)
	}
}

// LoggingInterceptor logs every unary call
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall("request", info.FullMethod, GetRequestID(ctx), start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs every stream once it ends
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall("stream", info.FullMethod, GetRequestID(ss.Context()), start, err)
		return err
	}
}

// RequestIDInterceptor takes the caller's x-request-id, or generates one,
// stores it in the context and echoes it in the response header
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := incomingRequestID(ctx)
		if id == "" {
			id = uuid.New().String()
		}
		ctx = context.WithValue(ctx, RequestIDKey, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
		return handler(ctx, req)
	}
}

// ErrorInterceptor converts coded errors returned by handlers into gRPC
// status errors. Errors that already carry a status pass through.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		var coded *mdwerrors.Error
		if errors.As(err, &coded) {
			return resp, status.Error(coded.Code().GRPCCode(), coded.Error())
		}
		return resp, status.Error(codes.Unknown, err.Error())
	}
}

// ClientInterceptor attaches a fresh request id to each outgoing call and
// logs the result
func ClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		id := GetRequestID(ctx)
		if id == "" {
			id = uuid.New().String()
		}
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, id)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logCall("client", method, id, start, err)
		return err
	}
}

// GetRequestID returns the id stored by RequestIDInterceptor, falling back
// to the incoming metadata
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return incomingRequestID(ctx)
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(RequestIDHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}
