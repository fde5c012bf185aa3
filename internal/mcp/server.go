// Package mcp открывает управляющий интерфейс сервиса по Model Context Protocol.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/artemshloyda/photoresizer/internal/service"
)

// Server оборачивает MCP сервер вокруг service.Service.
type Server struct {
	mcpServer *mcp.Server
	svc       *service.Service
	logger    *slog.Logger

	// ctx - контекст жизни сервера, в нём выполняется начальная обработка.
	ctx context.Context
}

// NewServer создаёт MCP сервер и регистрирует инструменты.
func NewServer(svc *service.Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "photoresizer",
		Version: version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		logger:    logger,
		ctx:       context.Background(),
	}

	s.registerTools()

	return s
}

// registerTools регистрирует все инструменты.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "configure_folders",
		Description: "Set the source folder to watch and the destination folder for resized images. The destination is created if missing.",
	}, s.handleConfigureFolders)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "configure_policy",
		Description: "Update the resize policy. Omitted fields keep their previous value. A non-zero single_side_resolution takes precedence over scaling_factor.",
	}, s.handleConfigurePolicy)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_initial_pass",
		Description: "Resize every image currently in the source folder and return one result per file.",
	}, s.handleRunInitialPass)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_watching",
		Description: "Start polling the source folder for new images in the background.",
	}, s.handleStartWatching)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "stop_watching",
		Description: "Stop the background folder watcher.",
	}, s.handleStopWatching)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_status",
		Description: "Return watcher state, configured folders, resize policy and processed file count.",
	}, s.handleGetStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "poll_events",
		Description: "Return results for new files resized by the watcher since the last call.",
	}, s.handlePollEvents)
}

// RunStdio запускает сервер на stdio.
func (s *Server) RunStdio(ctx context.Context) error {
	s.ctx = ctx
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// NewHTTPHandler создаёт HTTP обработчик для SSE транспорта.
func (s *Server) NewHTTPHandler() http.Handler {
	return mcp.NewSSEHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// NewStreamableHTTPHandler создаёт HTTP обработчик для streamable транспорта.
func (s *Server) NewStreamableHTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}
