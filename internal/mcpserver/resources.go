package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	todayURI    = "nura://today"
	progressURI = "nura://progress"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today",
		Description: "Today's stats, meals and daily log",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         progressURI,
		Name:        "Progress",
		Description: "Flow streak, level and active plan",
		MIMEType:    "application/json",
	}, s.handleProgressResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	v, err := s.api.Daily(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get today: %w", err)
	}
	return jsonResource(todayURI, v)
}

func (s *Server) handleProgressResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	p, err := s.api.Progress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	plan, err := s.api.ActivePlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active plan: %w", err)
	}
	return jsonResource(progressURI, map[string]any{
		"progress": p,
		"plan":     plan,
	})
}
