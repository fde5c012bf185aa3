package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/artemshloyda/photoresizer/internal/service"
)

func (s *Server) handleConfigureFolders(ctx context.Context, req *mcp.CallToolRequest, input ConfigureFoldersInput) (*mcp.CallToolResult, service.Response, error) {
	resp := s.svc.ConfigureFolders(input.Source, input.Destination)
	s.logger.Info("mcp: configure_folders", "source", input.Source, "destination", input.Destination, "success", resp.Success)
	return nil, resp, nil
}

func (s *Server) handleConfigurePolicy(ctx context.Context, req *mcp.CallToolRequest, input ConfigurePolicyInput) (*mcp.CallToolResult, service.Response, error) {
	return nil, s.svc.ConfigurePolicy(input.ScalingFactor, input.SingleSideResolution), nil
}

// handleRunInitialPass выполняет проход в контексте сервера, а не запроса.
func (s *Server) handleRunInitialPass(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, service.PassResponse, error) {
	resp := s.svc.RunInitialPass(s.ctx, nil)
	s.logger.Info("mcp: run_initial_pass", "files", len(resp.Results), "success", resp.Success)
	return nil, resp, nil
}

func (s *Server) handleStartWatching(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, service.Response, error) {
	return nil, s.svc.StartWatching(), nil
}

func (s *Server) handleStopWatching(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, service.Response, error) {
	return nil, s.svc.StopWatching(), nil
}

func (s *Server) handleGetStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, service.StatusResponse, error) {
	return nil, s.svc.GetStatus(), nil
}

func (s *Server) handlePollEvents(ctx context.Context, req *mcp.CallToolRequest, input PollEventsInput) (*mcp.CallToolResult, PollEventsOutput, error) {
	if input.Max < 0 {
		return nil, PollEventsOutput{}, fmt.Errorf("max must be >= 0")
	}

	return nil, PollEventsOutput{
		Events:  s.svc.DrainEvents(input.Max),
		Dropped: s.svc.Dropped(),
	}, nil
}
