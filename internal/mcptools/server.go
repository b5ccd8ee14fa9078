package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewDiveMCPServer creates an MCP server with the 5 deep-dive tools
// registered: start_investigation, get_pending_plan, resolve_approval,
// get_run_status, and export_run.
func NewDiveMCPServer(svc *DiveService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "netdive",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_investigation",
		Description: "Start a deep-dive investigation for a diagnostic objective. Returns a run ID immediately; the run proceeds in the background.",
	}, svc.StartInvestigation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pending_plan",
		Description: "Get the execution plan parked at the approval gate for a run, including the resume token and per-task recommendations. Returns found=false when the run is not waiting for approval.",
	}, svc.GetPendingPlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_approval",
		Description: "Deliver an approve, modify, or reject decision to a run parked at the approval gate. A modify decision applies per-task table and feasibility overrides before execution.",
	}, svc.ResolveApproval)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_run_status",
		Description: "Get the current phase, round, recursion depth, and per-status task counts for a run. Includes the final report once the run completes.",
	}, svc.GetRunStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_run",
		Description: "Export a run as structured JSON or as a Mermaid diagram of the task dependency graph.",
	}, svc.ExportRun)

	return server
}

// RunDiveMCPServerStdio runs the MCP server on stdio transport, blocking
// until stdin is closed or the context is cancelled.
func RunDiveMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
