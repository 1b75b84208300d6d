// ABOUTME: gRPC server exposing a capability.Client over the Capability service
// ABOUTME: Used by the sim-robot command to stand in for the onboard controller

package remote

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/2389/robot-gateway/internal/capability"
)

// Server serves a capability.Client to remote gateways.
type Server struct {
	client capability.Client
	logger *slog.Logger
}

var _ InvokeServer = (*Server)(nil)

// NewServer wraps client.
func NewServer(client capability.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{client: client, logger: logger.With("component", "capability-server")}
}

// Register installs the Capability service on reg.
func (s *Server) Register(reg grpc.ServiceRegistrar) {
	reg.RegisterService(&serviceDesc, s)
}

// Invoke decodes {op, args}, runs the operation and encodes {result, error}.
// Capability errors travel in the error field; malformed requests are
// rejected with a gRPC status.
func (s *Server) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	op := capability.Op(req.GetFields()[fieldOp].GetStringValue())
	if !capability.Known(op) {
		return nil, status.Errorf(codes.Unimplemented, "unknown operation %q", op)
	}

	var args capability.Args
	if v := req.GetFields()[fieldArgs].GetStructValue(); v != nil {
		args = capability.Args(v.AsMap())
	}

	result, err := capability.Call(ctx, s.client, op, args)
	if errors.Is(err, capability.ErrBadArgs) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if err != nil {
		s.logger.Warn("capability call failed", "op", op, "error", err)
		resp.Fields[fieldError] = structpb.NewStringValue(err.Error())
		return resp, nil
	}

	value, err := toValue(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result of %s: %v", op, err)
	}
	resp.Fields[fieldResult] = value
	s.logger.Debug("capability call", "op", op)
	return resp, nil
}
