// Package mcp exposes gena's analyzer and state tracker as MCP tools over
// stdio, so agent runtimes can query and append to a repository's
// evolutionary state.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/genaproject/gena/internal/pattern"
	"github.com/genaproject/gena/internal/repo"
	"github.com/genaproject/gena/internal/state"
	"github.com/genaproject/gena/internal/store"
)

// Server wraps the MCP server with gena's workspace.
type Server struct {
	store  *store.Store
	server *mcp.Server
}

// NewServer creates a new gena MCP server.
func NewServer(st *store.Store, version string) *Server {
	s := &Server{store: st}

	impl := &mcp.Implementation{
		Name:    "gena",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "gena_analyze",
		Description: "Run recursive pattern analysis over the repository's commit history, " +
			"file layout, and documentation. Returns typed, confidence-scored pattern records " +
			"tagged with the recursion depth they were produced at.",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "gena_state_summary",
		Description: "Get the repository's evolutionary state: current lifecycle state, " +
			"event history count, detected emergent patterns, and recursive analysis depth.",
	}, s.handleStateSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "gena_record_pattern",
		Description: "Record an emergent pattern into the persisted state document. " +
			"The pattern is stamped with the document's current recursive depth.",
	}, s.handleRecordPattern)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "gena_transition",
		Description: "Transition the repository's lifecycle state. Appends exactly one " +
			"history entry recording the previous state and the reason.",
	}, s.handleTransition)
}

type AnalyzeArgs struct {
	Depth int `json:"depth,omitempty" jsonschema:"Maximum recursion depth (default: the workspace's configured depth)"`
}

type AnalyzeResult struct {
	Patterns []pattern.Pattern `json:"patterns"`
	MaxDepth int               `json:"max_depth"`
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
	r, err := repo.Open(s.store.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open repository: %w", err)
	}

	depth := s.store.Config.Analyzer.MaxDepth
	if args.Depth > 0 {
		depth = args.Depth
	}

	analyzer := pattern.New(r,
		pattern.WithMaxDepth(depth),
		pattern.WithMarkers(s.store.Config.Analyzer.Markers))

	return nil, AnalyzeResult{
		Patterns: analyzer.AnalyzeAll(),
		MaxDepth: depth,
	}, nil
}

type StateSummaryArgs struct{}

type StateSummaryResult struct {
	Current        state.CurrentState `json:"current"`
	HistoryEvents  int                `json:"history_events"`
	PatternCount   int                `json:"pattern_count"`
	RecursiveDepth int                `json:"recursive_depth"`
	MaxDepth       int                `json:"max_depth"`
}

func (s *Server) handleStateSummary(ctx context.Context, req *mcp.CallToolRequest, args StateSummaryArgs) (*mcp.CallToolResult, any, error) {
	tracker := state.NewTracker(s.store.StatePath())
	doc, err := tracker.Document()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load state: %w", err)
	}

	return nil, StateSummaryResult{
		Current:        doc.CurrentState,
		HistoryEvents:  len(doc.StateHistory),
		PatternCount:   len(doc.Patterns.Emergent),
		RecursiveDepth: doc.Patterns.Recursive.Depth,
		MaxDepth:       doc.Patterns.Recursive.MaxDepth,
	}, nil
}

type RecordPatternArgs struct {
	Type        string  `json:"type" jsonschema:"Pattern type tag (e.g. commit_frequency)"`
	Description string  `json:"description" jsonschema:"Human-readable description of the observation"`
	Confidence  float64 `json:"confidence,omitempty" jsonschema:"Confidence in [0,1] (default 0)"`
}

type RecordPatternResult struct {
	Recorded bool `json:"recorded"`
}

func (s *Server) handleRecordPattern(ctx context.Context, req *mcp.CallToolRequest, args RecordPatternArgs) (*mcp.CallToolResult, any, error) {
	if args.Type == "" || args.Description == "" {
		return nil, nil, fmt.Errorf("type and description are required")
	}

	tracker := state.NewTracker(s.store.StatePath())
	if err := tracker.DetectPattern(args.Type, args.Description, args.Confidence); err != nil {
		return nil, nil, fmt.Errorf("failed to record pattern: %w", err)
	}
	return nil, RecordPatternResult{Recorded: true}, nil
}

type TransitionArgs struct {
	State  string `json:"state" jsonschema:"The new lifecycle state"`
	Reason string `json:"reason,omitempty" jsonschema:"Why the transition happened"`
}

type TransitionResult struct {
	State string `json:"state"`
}

func (s *Server) handleTransition(ctx context.Context, req *mcp.CallToolRequest, args TransitionArgs) (*mcp.CallToolResult, any, error) {
	if args.State == "" {
		return nil, nil, fmt.Errorf("state is required")
	}

	tracker := state.NewTracker(s.store.StatePath())
	if err := tracker.Transition(args.State, args.Reason); err != nil {
		return nil, nil, fmt.Errorf("transition failed: %w", err)
	}
	return nil, TransitionResult{State: args.State}, nil
}
