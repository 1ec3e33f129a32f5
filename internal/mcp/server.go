// Package mcp exposes the review ledger as MCP tools so coding agents can
// query gate status over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prgate/prgate/internal/store"
)

// Server wraps the prgate data layer and exposes it as MCP tools.
type Server struct {
	store store.Store
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("prgate", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.getStateTool())
	srv.AddTool(s.listStatesTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// prgate_get_state
func (s *Server) getStateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("prgate_get_state",
		mcp.WithDescription("Get the full review ledger for a task: iterations, scores, verdicts, findings, and cumulative cost. Returns JSON."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task identifier")),
	)
	return tool, s.handleGetState
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task"), nil
	}

	rec, err := s.store.GetState(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load state: %v", err)), nil
	}
	if rec == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no review state for task: %s", task)), nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// prgate_list_states
func (s *Server) listStatesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("prgate_list_states",
		mcp.WithDescription("List all review state records. Returns a JSON array with task, pr_number, status, iteration, total_usd, and updated_at per record."),
	)
	return tool, s.handleListStates
}

func (s *Server) handleListStates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	states, err := s.store.ListStates(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list states: %v", err)), nil
	}

	type stateOut struct {
		Task      string  `json:"task"`
		PRNumber  int     `json:"pr_number"`
		Status    string  `json:"status"`
		Iteration int     `json:"iteration"`
		TotalUSD  float64 `json:"total_usd"`
		UpdatedAt string  `json:"updated_at"`
	}

	out := make([]stateOut, len(states))
	for i, st := range states {
		out[i] = stateOut{
			Task:      st.Task,
			PRNumber:  st.PRNumber,
			Status:    string(st.Status),
			Iteration: st.Iteration,
			TotalUSD:  st.TotalUSD,
			UpdatedAt: st.UpdatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal states: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
