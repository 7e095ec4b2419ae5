// Package server exposes the exercise catalog and search as MCP tools over
// stdio or streamable HTTP.
package server

import (
	"context"
	"sync/atomic"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/hevy"
	"github.com/gymkit/hevymcp/search"
	"github.com/gymkit/hevymcp/version"
)

// TemplateGetter fetches a single exercise template from the Hevy API
type TemplateGetter interface {
	GetExerciseTemplate(ctx context.Context, id string) (*hevy.ExerciseTemplate, error)
}

var _ TemplateGetter = (*hevy.Client)(nil)

const instructions = "Search Hevy exercise templates in English or Spanish. " +
	"Use search-exercise-templates to find an exerciseTemplateId, then get-exercise-template for details."

// Options configures a Server
type Options struct {
	Store        *catalog.Store
	Ranker       *search.Ranker // nil = default dictionary
	Hevy         TemplateGetter // nil = local catalog only
	DefaultLimit int            // 0 = search.DefaultLimit
	Logger       *zap.SugaredLogger
}

// ServerState tracks the lifecycle for health reporting
type ServerState int32

const (
	ServerStateStarting ServerState = iota
	ServerStateRunning
	ServerStateDraining
	ServerStateStopped
)

func (s ServerState) String() string {
	switch s {
	case ServerStateStarting:
		return "starting"
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Server wires the catalog store and ranker into an MCP server
type Server struct {
	store        *catalog.Store
	ranker       *search.Ranker
	hevy         TemplateGetter
	defaultLimit int
	logger       *zap.SugaredLogger
	state        atomic.Int32

	mcp     *mcpserver.MCPServer
	metrics *Metrics
}

// New creates a server and registers its tools and resources
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	store := opts.Store
	if store == nil {
		store = catalog.NewStoreFromSnapshot(nil)
	}
	ranker := opts.Ranker
	if ranker == nil {
		ranker = search.NewRanker(nil)
	}
	limit := opts.DefaultLimit
	if limit < 1 {
		limit = search.DefaultLimit
	}

	s := &Server{
		store:        store,
		ranker:       ranker,
		hevy:         opts.Hevy,
		defaultLimit: min(limit, search.MaxLimit),
		logger:       log,
		metrics:      NewMetrics(store),
	}

	s.mcp = mcpserver.NewMCPServer(
		version.Name,
		version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithToolHandlerMiddleware(s.withRequestLogging),
		mcpserver.WithInstructions(instructions),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Metrics returns the Prometheus collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// State returns the current lifecycle state
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(state ServerState) {
	s.state.Store(int32(state))
	s.logger.Debugw("Server state changed", "state", state.String())
}
