// Package server provides the MCP server implementation for the Amap integration.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/NERVsystems/amapmcp/pkg/tools"
	"github.com/NERVsystems/amapmcp/pkg/tools/prompts"
	"github.com/NERVsystems/amapmcp/pkg/version"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "amap-mcp-server"

	// shutdownTimeout bounds SSE shutdown after the context ends.
	shutdownTimeout = 5 * time.Second
)

// Server encapsulates the MCP server with Amap tools.
type Server struct {
	srv    *server.MCPServer
	logger *slog.Logger
}

// NewServer creates a new Amap MCP server with all tools and prompts
// registered against svc.
func NewServer(svc *amap.Service, logger *slog.Logger, toolTimeout time.Duration) (*Server, error) {
	if svc == nil {
		return nil, errors.New("server: nil service")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initializing Amap MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	srv := server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	registry := tools.NewRegistry(svc, logger, toolTimeout)
	registry.RegisterTools(srv)
	prompts.RegisterGeocodingPrompts(srv)

	return &Server{srv: srv, logger: logger}, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.srv
}

// RunStdio serves on stdin and stdout until stdin closes or ctx ends.
func (s *Server) RunStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(log.New(slogWriter{s.logger}, "", 0))

	s.logger.Info("serving over stdio")
	err := stdio.Listen(ctx, stdin, stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunSSE serves the SSE transport on addr until ctx ends. baseURL is the
// externally visible address advertised to clients; empty derives it from
// addr.
func (s *Server) RunSSE(ctx context.Context, addr, baseURL string) error {
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost%s", addr)
	}
	sse := server.NewSSEServer(s.srv, server.WithBaseURL(baseURL))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving over SSE", "addr", addr, "base_url", baseURL)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("sse server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("sse shutdown: %w", err)
	}
	return nil
}

// slogWriter forwards the stdio server's log.Logger output to slog.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	w.logger.Error("stdio transport", "error", string(trimNewline(p)))
	return len(p), nil
}

func trimNewline(p []byte) []byte {
	for len(p) > 0 && (p[len(p)-1] == '\n' || p[len(p)-1] == '\r') {
		p = p[:len(p)-1]
	}
	return p
}
