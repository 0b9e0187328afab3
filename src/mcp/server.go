// Package mcp exposes the integration engine to coding agents as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"weld-agent/src/contracts"
	"weld-agent/src/hunk"
	"weld-agent/src/run"
	"weld-agent/src/session"
)

// Server is the MCP server for weld. Agents submit edits with submit_edit,
// trigger integration with run_merge, and audit past runs with get_run.
type Server struct {
	mcpServer *server.MCPServer
	session   *session.Session
	base      *run.SyncSource
}

// NewServer creates an MCP server around a shared base source and a session
// factory. Tool calls arrive from independent agent sessions; the base
// source records the first-seen content of each file as the common base.
func NewServer(newSession func(base *run.SyncSource) (*session.Session, error)) (*Server, error) {
	base := run.NewSyncSource()

	sess, err := newSession(base)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"weld",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		session:   sess,
		base:      base,
	}
	srv.registerTools()

	return srv, nil
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	submitTool := mcp.NewTool("submit_edit",
		mcp.WithDescription("Submit one file edit to the integration engine. The edit is visible to run_merge as soon as this call returns. Edits from multiple agents to the same file are reconciled by the next run_merge. Supply diff_hunks for line-precise edits (preferred); supply new_content only when hunks are unavailable."),
		mcp.WithString("agent_id",
			mcp.Required(),
			mcp.Description("Identifier of the submitting agent"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Repository-relative path of the edited file"),
		),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of: create, update, delete, rename"),
		),
		mcp.WithString("diff_hunks",
			mcp.Description(`JSON array of hunks: [{"start_line":N,"old_lines":[...],"new_lines":[...]}]`),
		),
		mcp.WithString("new_content",
			mcp.Description("Full replacement content (create, or update without hunks)"),
		),
		mcp.WithString("rename_to",
			mcp.Description("Destination path for rename operations"),
		),
		mcp.WithString("rationale",
			mcp.Description("Why the agent made this change; forwarded to the merge arbiter"),
		),
		mcp.WithString("base_content",
			mcp.Description("The file content the edit was computed against; recorded as the common base if not already known"),
		),
	)

	mergeTool := mcp.NewTool("run_merge",
		mcp.WithDescription("Run a merge over all edits submitted so far. Non-overlapping edits merge mechanically; conflicting edits are arbitrated semantically. Returns per-file strategies and any unresolved files."),
	)

	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the status and per-file outcomes of a past merge run."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID returned by run_merge"),
		),
	)

	s.mcpServer.AddTool(submitTool, s.handleSubmitEdit)
	s.mcpServer.AddTool(mergeTool, s.handleRunMerge)
	s.mcpServer.AddTool(getRunTool, s.handleGetRun)
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	s.session.StartCollector(ctx)
	return server.ServeStdio(s.mcpServer)
}

// handleSubmitEdit handles the submit_edit tool call.
func (s *Server) handleSubmitEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry := contracts.EditEntry{
		AgentID:     request.GetString("agent_id", ""),
		FilePath:    request.GetString("file_path", ""),
		Operation:   contracts.Operation(request.GetString("operation", "")),
		RenameTo:    request.GetString("rename_to", ""),
		Rationale:   request.GetString("rationale", ""),
		SubmittedAt: time.Now().UnixNano(),
	}

	if content := request.GetString("new_content", ""); content != "" {
		entry.NewContent = content
		entry.HasContent = true
	}

	if hunksJSON := request.GetString("diff_hunks", ""); hunksJSON != "" {
		var hunks []hunk.Hunk
		if err := json.Unmarshal([]byte(hunksJSON), &hunks); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid diff_hunks: %v", err)), nil
		}
		entry.DiffHunks = hunks
	}

	if err := entry.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Record the common base the first time a file is seen.
	if base := request.GetString("base_content", ""); base != "" {
		s.base.Set(entry.FilePath, base)
	}

	// Append directly to the session's log instead of going through the
	// broker: the tool call must be read-your-writes, so a run_merge issued
	// right after the ack sees this edit.
	if err := s.session.Append(entry); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submission failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("edit accepted: %s %s by %s",
		entry.Operation, entry.FilePath, entry.AgentID)), nil
}

// handleRunMerge handles the run_merge tool call.
func (s *Server) handleRunMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output, err := s.session.Merge(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("merge run failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal output: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// handleGetRun handles the get_run tool call.
func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return mcp.NewToolResultError("run_id parameter is required"), nil
	}

	status, err := s.session.RunStatus(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	files, err := s.session.MergedFiles(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	result := struct {
		Status *contracts.RunStatus   `json:"status"`
		Files  []contracts.MergedFile `json:"files"`
	}{status, files}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
