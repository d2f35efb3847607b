// Package mcpserver exposes NURA to MCP clients over stdio. Tools that touch
// user data go through the HTTP API so the server never opens the database.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// API is the slice of the NURA API the tools need. *client.Client
// implements it.
type API interface {
	Daily(ctx context.Context, date string) (models.DailyView, error)
	LogMeal(ctx context.Context, in models.MealInput) (models.MealCreated, error)
	Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalyzeResponse, error)
	Progress(ctx context.Context) (nutrition.Progress, error)
	ActivePlan(ctx context.Context) (*models.Plan, error)
}

// Server wraps the MCP server with NURA functionality.
type Server struct {
	mcpServer *mcp.Server
	api       API
}

// NewServer creates an MCP server with every tool and resource registered.
func NewServer(api API, version string) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "nura",
			Version: version,
		}, nil),
		api: api,
	}

	s.registerTools()
	s.registerResources()

	return s
}

// Serve runs the server on stdio until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
