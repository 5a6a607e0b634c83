package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region types
// RecalcResult is the summary returned by an admin recalculation.
type RecalcResult struct {
	RunID      string
	Matches    int
	Agents     int
	Reset      int
	DurationMs int64
}

// ScoreResult is an agent's dashboard stats.
type ScoreResult struct {
	AgentID        string
	ResonanceScore float64
	TotalMatches   int
	Fresh          bool
}

// #endregion types

// #region client-struct
// Client wraps the gRPC connection to the resonance daemon.
type Client struct {
	conn   *grpc.ClientConn
	client ResonanceClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to the resonance daemon at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewResonanceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc ResonanceClient) *Client {
	return &Client{client: svc}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region calls
// Recalculate asks the daemon to recompute every score.
func (c *Client) Recalculate(ctx context.Context) (RecalcResult, error) {
	resp, err := c.client.Recalculate(ctx, &emptypb.Empty{})
	if err != nil {
		return RecalcResult{}, fmt.Errorf("recalculate rpc: %w", err)
	}
	f := resp.GetFields()
	return RecalcResult{
		RunID:      f["run_id"].GetStringValue(),
		Matches:    int(f["matches"].GetNumberValue()),
		Agents:     int(f["agents"].GetNumberValue()),
		Reset:      int(f["reset"].GetNumberValue()),
		DurationMs: int64(f["duration_ms"].GetNumberValue()),
	}, nil
}

// Score fetches an agent's stats.
func (c *Client) Score(ctx context.Context, agentID string) (ScoreResult, error) {
	resp, err := c.client.GetScore(ctx, wrapperspb.String(agentID))
	if err != nil {
		return ScoreResult{}, fmt.Errorf("get score rpc: %w", err)
	}
	f := resp.GetFields()
	return ScoreResult{
		AgentID:        f["agent_id"].GetStringValue(),
		ResonanceScore: f["resonance_score"].GetNumberValue(),
		TotalMatches:   int(f["total_matches"].GetNumberValue()),
		Fresh:          f["fresh"].GetBoolValue(),
	}, nil
}

// RecordMatch records a match between two agents and returns its id.
func (c *Client) RecordMatch(ctx context.Context, agentA, agentB string) (string, error) {
	req, err := structpb.NewStruct(map[string]any{"agent_a": agentA, "agent_b": agentB})
	if err != nil {
		return "", fmt.Errorf("encode match: %w", err)
	}
	resp, err := c.client.RecordMatch(ctx, req)
	if err != nil {
		return "", fmt.Errorf("record match rpc: %w", err)
	}
	return resp.GetValue(), nil
}

// #endregion calls
