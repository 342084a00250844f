// Package advisor provides an MCP (Model Context Protocol) server that gives
// an assistant read-only access to the plan via stdio transport.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/planner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	summaryURI       = "semesterplan://summary"
	defaultTopMonths = 3
	defaultHolidays  = 5
)

// Source is the read side of a planning session
type Source interface {
	Overview() planner.Overview
	Month(year int, month time.Month) (planner.MonthView, error)
	Report(topN, holidaysN int) budget.Report
}

// Server wraps the MCP server with the planner tools
type Server struct {
	mcp *server.MCPServer
	src Source
}

// New creates the MCP server. No tool mutates the plan.
func New(src Source, version string) *Server {
	s := &Server{src: src}

	s.mcp = server.NewMCPServer(
		"Semesterplan",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Plain-text vacation summary of the current scenario: budget, consumed and "+
			"remaining days, the months with most vacation, the next planned vacation day and "+
			"upcoming public holidays."),
		mcp.WithNumber("top_months", mcp.Description("How many months to list (default 3)")),
		mcp.WithNumber("holidays", mcp.Description("How many upcoming holidays to list (default 5)")),
	), s.getSummary)

	s.mcp.AddTool(mcp.NewTool("get_month",
		mcp.WithDescription("Day-by-day view of one month of the current scenario as JSON. "+
			"kind is Workday, RestrictedHoliday or RestrictedWork (locked Friday)."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2026")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month 1-12")),
	), s.getMonth)

	s.mcp.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("Scenario names with consumed and remaining days as JSON."),
	), s.listScenarios)

	s.mcp.AddResource(
		mcp.NewResource(summaryURI, "Vacation summary",
			mcp.WithResourceDescription("Plain-text summary of the current scenario."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readSummaryResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getSummary(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topN := req.GetInt("top_months", defaultTopMonths)
	holidaysN := req.GetInt("holidays", defaultHolidays)
	if topN < 0 || holidaysN < 0 {
		return mcp.NewToolResultError("counts must not be negative"), nil
	}
	return mcp.NewToolResultText(s.src.Report(topN, holidaysN).Text()), nil
}

func (s *Server) getMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	month, err := req.RequireInt("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if month < 1 || month > 12 {
		return mcp.NewToolResultError(fmt.Sprintf("month must be 1-12, got %d", month)), nil
	}

	view, err := s.src.Month(year, time.Month(month))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listScenarios(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.src.Overview(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSummaryResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      summaryURI,
			MIMEType: "text/plain",
			Text:     s.src.Report(defaultTopMonths, defaultHolidays).Text(),
		},
	}, nil
}
