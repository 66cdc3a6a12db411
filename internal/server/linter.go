// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     server
// Description: gRPC Linter service. Requests and responses are
//              google.protobuf.Struct messages mirroring the JSON documents
//              of the WebSocket endpoint.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msto63/structlint/internal/service"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

// LinterServiceName is the fully qualified gRPC service name
const LinterServiceName = "structlint.v1.Linter"

const (
	lintMethod   = "/" + LinterServiceName + "/Lint"
	formatMethod = "/" + LinterServiceName + "/Format"
)

// LinterServer is the server API of the Linter service
type LinterServer interface {
	Lint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Format(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLinterServer registers srv on s
func RegisterLinterServer(s grpc.ServiceRegistrar, srv LinterServer) {
	s.RegisterService(&linterServiceDesc, srv)
}

var linterServiceDesc = grpc.ServiceDesc{
	ServiceName: LinterServiceName,
	HandlerType: (*LinterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Lint", Handler: lintHandler},
		{MethodName: "Format", Handler: formatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "structlint/v1/linter.proto",
}

func lintHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinterServer).Lint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: lintMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinterServer).Lint(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func formatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinterServer).Format(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: formatMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinterServer).Format(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// linterService implements LinterServer on top of the service layer
type linterService struct {
	svc *service.Service
}

func (l *linterService) Lint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := documentFromStruct(req)
	if err != nil {
		return nil, err
	}
	res, err := l.svc.Lint(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toStruct(res)
}

func (l *linterService) Format(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := documentFromStruct(req)
	if err != nil {
		return nil, err
	}
	res, err := l.svc.Format(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toStruct(res)
}

// documentFromStruct reads {uri, version, text}; text is required
func documentFromStruct(s *structpb.Struct) (service.Document, error) {
	var doc service.Document
	fields := s.GetFields()

	text, ok := fields["text"]
	if !ok {
		return doc, invalidInput("field \"text\" is required")
	}
	if _, isString := text.GetKind().(*structpb.Value_StringValue); !isString {
		return doc, invalidInput("field \"text\" must be a string")
	}
	doc.Text = text.GetStringValue()
	doc.URI = fields["uri"].GetStringValue()
	doc.Version = int(fields["version"].GetNumberValue())
	return doc, nil
}

// toStruct converts a result through its JSON form
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, mdwerrors.Wrap(err, "failed to encode result").WithCode(mdwerrors.CodeInternal)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, mdwerrors.Wrap(err, "failed to encode result").WithCode(mdwerrors.CodeInternal)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, mdwerrors.Wrap(err, "failed to encode result").WithCode(mdwerrors.CodeInternal)
	}
	return s, nil
}

// fromStruct decodes a Struct into a result type through its JSON form
func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func invalidInput(msg string) error {
	return mdwerrors.New(msg).WithCode(mdwerrors.CodeInvalidInput).WithOperation("linter.decode")
}

// LinterClient calls a remote Linter service
type LinterClient struct {
	cc grpc.ClientConnInterface
}

// NewLinterClient creates a client on an established connection
func NewLinterClient(cc grpc.ClientConnInterface) *LinterClient {
	return &LinterClient{cc: cc}
}

// Lint validates a document remotely
func (c *LinterClient) Lint(ctx context.Context, doc service.Document) (*service.LintResult, error) {
	out, err := c.invoke(ctx, lintMethod, doc)
	if err != nil {
		return nil, err
	}
	res := &service.LintResult{}
	if err := fromStruct(out, res); err != nil {
		return nil, transportErr(err, "failed to decode lint result")
	}
	return res, nil
}

// Format formats a document remotely
func (c *LinterClient) Format(ctx context.Context, doc service.Document) (*service.FormatResult, error) {
	out, err := c.invoke(ctx, formatMethod, doc)
	if err != nil {
		return nil, err
	}
	res := &service.FormatResult{}
	if err := fromStruct(out, res); err != nil {
		return nil, transportErr(err, "failed to decode format result")
	}
	return res, nil
}

func (c *LinterClient) invoke(ctx context.Context, method string, doc service.Document) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"uri":     doc.URI,
		"version": doc.Version,
		"text":    doc.Text,
	})
	if err != nil {
		return nil, transportErr(err, "failed to encode request")
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out); err != nil {
		return nil, transportErr(err, "remote call failed")
	}
	return out, nil
}

func transportErr(err error, msg string) error {
	return mdwerrors.Wrap(err, msg).WithCode(mdwerrors.CodeTransportError).WithOperation("linter.client")
}
