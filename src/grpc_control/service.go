package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"market-loader/src/helpers"
	"market-loader/src/logger"
	"market-loader/src/pipeline"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements ControlServer on top of the pipeline registry.
type ControlService struct {
	Registry *pipeline.Registry
	Logger   *logger.Logger
}

func NewControlService(registry *pipeline.Registry) *ControlService {
	return &ControlService{
		Registry: registry,
		Logger:   logger.NewLogger("ControlService"),
	}
}

// NewServer returns a gRPC server with the control service and reflection registered.
func NewServer(svc *ControlService) *grpc.Server {
	s := grpc.NewServer()
	RegisterControlServer(s, svc)
	reflection.Register(s)
	return s
}

// Serve blocks until lis fails or ctx is done, then stops gracefully.
func Serve(ctx context.Context, lis net.Listener, svc *ControlService) error {
	s := NewServer(svc)
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	svc.Logger.Info("gRPC control listening on %s", lis.Addr())
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListPipelines(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]any{"pipelines": s.Registry.List()})
}

// -----------------------------------------------------------------------------

// RunPipeline expects {"pipeline": name, "symbol"?: s, "setup_only"?: bool}. A failed run
// is not an RPC error: the report comes back with success=false.
func (s *ControlService) RunPipeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	name := fields["pipeline"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "pipeline is required")
	}
	opts := pipeline.RunOptions{
		Symbol:    fields["symbol"].GetStringValue(),
		SetupOnly: fields["setup_only"].GetBoolValue(),
	}

	report, err := s.Registry.Run(ctx, name, opts)

	var unknown *pipeline.ErrUnknownPipeline
	if errors.As(err, &unknown) {
		return nil, status.Errorf(codes.NotFound, "pipeline %s not found", name)
	}

	resp := map[string]any{"success": err == nil, "report": report}
	if err != nil {
		s.Logger.Error("gRPC: run of %s failed: %v", name, err)
		resp["error"] = err.Error()
		resp["kind"] = helpers.Kind(err)
	} else {
		s.Logger.Info("gRPC: run of %s finished with status %s", name, report.Status)
	}
	return toStruct(resp)
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListRuns(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]any{"runs": s.Registry.History.List()})
}

// -----------------------------------------------------------------------------

// toStruct goes through JSON so struct tags decide the field names.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
