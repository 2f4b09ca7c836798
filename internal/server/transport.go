package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Transport names.
const (
	TransportStdio      = "stdio"
	TransportSSE        = "sse"
	TransportStreamable = "streamable"
)

// Default HTTP transport settings.
const (
	DefaultHost               = "localhost"
	DefaultPort               = 3033
	DefaultSSEEndpoint        = "/sse"
	DefaultStreamableEndpoint = "/mcp"
	DefaultShutdownTimeout    = 10 * time.Second
)

// Transport attaches MCP servers built by a Factory to a wire protocol and
// serves until ctx ends or the peer goes away.
type Transport interface {
	Name() string
	Serve(ctx context.Context, factory Factory) error
}

// Stdio serves a single session over newline-delimited JSON-RPC. Reader and
// Writer default to the process's stdin and stdout.
type Stdio struct {
	Reader io.ReadCloser
	Writer io.WriteCloser
}

func (s *Stdio) Name() string { return TransportStdio }

// Serve runs one server until the input is closed or ctx ends.
func (s *Stdio) Serve(ctx context.Context, factory Factory) error {
	var t mcp.Transport = &mcp.StdioTransport{}
	if s.Reader != nil && s.Writer != nil {
		t = &mcp.IOTransport{Reader: s.Reader, Writer: s.Writer}
	}

	err := factory().Run(ctx, t)
	if ctx.Err() != nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HTTPConfig is shared by the HTTP-based transports.
type HTTPConfig struct {
	Host     string
	Port     int
	Endpoint string

	// ShutdownTimeout bounds the graceful shutdown once ctx ends.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

func (c HTTPConfig) withDefaults(endpoint string) HTTPConfig {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Endpoint == "" {
		c.Endpoint = endpoint
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SSE serves MCP over server-sent events: clients GET the endpoint to open
// a stream and POST messages back to the session URL it announces.
type SSE struct {
	HTTPConfig
}

func (s *SSE) Name() string { return TransportSSE }

// Handler returns the HTTP handler, with a fresh server per session.
func (s *SSE) Handler(factory Factory) http.Handler {
	cfg := s.withDefaults(DefaultSSEEndpoint)
	h := mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return factory() }, nil)
	return newRouter(cfg, TransportSSE, h)
}

func (s *SSE) Serve(ctx context.Context, factory Factory) error {
	return serveHTTP(ctx, s.withDefaults(DefaultSSEEndpoint), s.Handler(factory))
}

// StreamableHTTP serves MCP over the streamable HTTP transport.
type StreamableHTTP struct {
	HTTPConfig

	// Stateless disables session tracking.
	Stateless bool

	// JSONResponse answers POSTs with application/json instead of an event
	// stream.
	JSONResponse bool
}

func (s *StreamableHTTP) Name() string { return TransportStreamable }

// Handler returns the HTTP handler, with a fresh server per session.
func (s *StreamableHTTP) Handler(factory Factory) http.Handler {
	cfg := s.withDefaults(DefaultStreamableEndpoint)
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return factory() }, &mcp.StreamableHTTPOptions{
		Stateless:    s.Stateless,
		JSONResponse: s.JSONResponse,
		Logger:       cfg.Logger,
	})
	return newRouter(cfg, TransportStreamable, h)
}

func (s *StreamableHTTP) Serve(ctx context.Context, factory Factory) error {
	return serveHTTP(ctx, s.withDefaults(DefaultStreamableEndpoint), s.Handler(factory))
}

// NewTransport returns the transport registered under name.
func NewTransport(name string, cfg HTTPConfig) (Transport, error) {
	switch name {
	case TransportStdio:
		return &Stdio{}, nil
	case TransportSSE:
		return &SSE{HTTPConfig: cfg}, nil
	case TransportStreamable, "http":
		return &StreamableHTTP{HTTPConfig: cfg}, nil
	}
	return nil, fmt.Errorf("unknown transport %q (want %s, %s or %s)", name, TransportStdio, TransportSSE, TransportStreamable)
}

func newRouter(cfg HTTPConfig, transport string, mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"name":      ServerName,
			"transport": transport,
		})
	})
	r.Handle(cfg.Endpoint, mcpHandler)
	return r
}

// requestLogger logs one line per request at debug level. Streams are
// logged when they close.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.DebugContext(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr,
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func serveHTTP(ctx context.Context, cfg HTTPConfig, handler http.Handler) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		cfg.Logger.Info("listening", "addr", ln.Addr().String(), "endpoint", cfg.Endpoint)
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		cfg.Logger.Info("shutting down", "addr", ln.Addr().String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
