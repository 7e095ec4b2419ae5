package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/version"
)

// ShutdownTimeout bounds how long in-flight HTTP requests may take to finish
const ShutdownTimeout = 10 * time.Second

// MCPEndpoint is the streamable HTTP endpoint path
const MCPEndpoint = "/mcp"

// ServeStdio serves MCP over stdin/stdout until ctx is cancelled or stdin closes.
// Logs must not go to stdout in this mode.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Desugar()))

	s.setState(ServerStateRunning)
	s.logger.Infow("MCP server listening", logger.FieldTransport, "stdio")
	defer s.setState(ServerStateStopped)

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "stdio transport")
	}
	return nil
}

// Handler returns the HTTP routes: the MCP endpoint, /health and /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcp,
		mcpserver.WithEndpointPath(MCPEndpoint),
	))
	mux.HandleFunc("/health", s.HandleHealth)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// ServeHTTP listens on addr until ctx is cancelled, then drains connections
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.serveListener(ctx, ln)
}

func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	s.setState(ServerStateRunning)
	s.logger.Infow("MCP server listening",
		logger.FieldTransport, "http",
		logger.FieldAddress, ln.Addr().String(),
		logger.FieldPath, MCPEndpoint)

	select {
	case err := <-errCh:
		s.setState(ServerStateStopped)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http transport")
	case <-ctx.Done():
	}

	s.setState(ServerStateDraining)
	s.logger.Infow("Initiating server shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.setState(ServerStateStopped)
	if err != nil {
		s.logger.Warnw("Shutdown timed out, forcing exit", "timeout", ShutdownTimeout)
		return errors.Wrap(err, "http shutdown")
	}
	s.logger.Infow("Server shutdown complete")
	return nil
}

// HandleHealth reports liveness, catalog size and host memory
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	snap := s.store.Snapshot()
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version.Version,
		"state":     s.State().String(),
		"exercises": snap.Len(),
	}
	if err := s.store.Err(); err != nil {
		health["catalog_error"] = err.Error()
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory"] = map[string]uint64{
			"total_bytes":     vm.Total,
			"available_bytes": vm.Available,
		}
	} else {
		s.logger.Debugw("Memory stats unavailable", logger.FieldError, err)
	}
	writeJSON(w, http.StatusOK, health)
}
