package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/badbboy/mcp-mermaid/internal/render"
)

// Options configures a Server.
type Options struct {
	// Backend renders diagrams. Required.
	Backend render.Backend

	// Observer is notified after every tool call. Optional.
	Observer Observer

	// Logger defaults to slog.Default(). It must not write to stdout when
	// serving over stdio.
	Logger *slog.Logger

	// Version is reported to clients during the handshake.
	Version string
}

// Server wires the tool registry, dispatcher and MCP server factory.
type Server struct {
	dispatcher *Dispatcher
	factory    Factory
	logger     *slog.Logger
}

// New creates a server exposing generate_mermaid_diagram.
func New(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("server requires a render backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := NewRegistry(MermaidTool())
	if err != nil {
		return nil, err
	}
	dispatcher, err := NewDispatcher(DispatcherConfig{
		Registry:     registry,
		Orchestrator: NewOrchestrator(opts.Backend, logger),
		Observer:     opts.Observer,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		dispatcher: dispatcher,
		factory:    NewFactory(dispatcher, opts.Version, logger),
		logger:     logger,
	}, nil
}

// Dispatcher returns the dispatcher behind every MCP server s builds.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Factory returns the MCP server factory.
func (s *Server) Factory() Factory {
	return s.factory
}

// Run serves over t until ctx ends or the transport stops.
func (s *Server) Run(ctx context.Context, t Transport) error {
	s.logger.Info("starting MCP server", "transport", t.Name())
	err := t.Serve(ctx, s.factory)
	if err != nil {
		s.logger.Error("transport stopped", "transport", t.Name(), "error", err)
		return err
	}
	s.logger.Info("MCP server stopped", "transport", t.Name())
	return nil
}
