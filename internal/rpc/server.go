package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/clawder/resonance/internal/match"
	"github.com/clawder/resonance/internal/trigger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region service
// Service implements ResonanceServer on top of the trigger callers.
type Service struct {
	runner    *trigger.Runner
	dashboard *trigger.Dashboard
	matcher   *trigger.Matcher
}

// NewService creates a Service.
func NewService(runner *trigger.Runner, dashboard *trigger.Dashboard, matcher *trigger.Matcher) *Service {
	return &Service{runner: runner, dashboard: dashboard, matcher: matcher}
}

// Recalculate is the admin trigger. Unlike the dashboard and match paths it
// reports scorer failures to the caller.
func (s *Service) Recalculate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res, err := s.runner.Run(ctx, trigger.TriggerAdmin)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "recalculate resonance: %v", err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"success":     true,
		"run_id":      res.RunID,
		"matches":     res.Matches,
		"agents":      res.Agents,
		"reset":       res.Reset,
		"duration_ms": res.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// GetScore returns dashboard stats for one agent.
func (s *Service) GetScore(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	agentID := strings.TrimSpace(in.GetValue())
	if agentID == "" {
		return nil, status.Error(codes.InvalidArgument, "agent id is required")
	}
	stats, err := s.dashboard.View(ctx, agentID)
	if errors.Is(err, match.ErrProfileNotFound) {
		return nil, status.Errorf(codes.NotFound, "agent %s not found", agentID)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "read stats: %v", err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"agent_id":        stats.AgentID,
		"resonance_score": stats.ResonanceScore,
		"total_matches":   stats.TotalMatches,
		"fresh":           stats.Fresh,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode stats: %v", err)
	}
	return out, nil
}

// RecordMatch stores a mutual match.
func (s *Service) RecordMatch(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	a := strings.TrimSpace(in.GetFields()["agent_a"].GetStringValue())
	b := strings.TrimSpace(in.GetFields()["agent_b"].GetStringValue())
	if a == "" || b == "" {
		return nil, status.Error(codes.InvalidArgument, "agent_a and agent_b are required")
	}
	id, err := s.matcher.RecordMatch(ctx, a, b)
	if errors.Is(err, match.ErrSelfMatch) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "record match: %v", err)
	}
	return wrapperspb.String(id), nil
}

// #endregion service

// #region server
// Server hosts the resonance gRPC API and the health service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// New listens on addr and registers svc.
func New(addr string, svc ResonanceServer, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewWithListener(listener, svc, logger), nil
}

// NewWithListener builds a server on an existing listener.
func NewWithListener(listener net.Listener, svc ResonanceServer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	RegisterResonanceServer(grpcServer, svc)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs the gRPC server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}

	s.logger.Info("resonance server listening", "addr", s.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// #endregion server
