// Command mcp-mermaid serves the Mermaid diagram MCP tool over stdio, SSE
// or streamable HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/badbboy/mcp-mermaid/internal/config"
	"github.com/badbboy/mcp-mermaid/internal/logging"
	"github.com/badbboy/mcp-mermaid/internal/render"
	"github.com/badbboy/mcp-mermaid/internal/server"
	"github.com/badbboy/mcp-mermaid/internal/telemetry"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitFailure = 1
	exitConfig  = 2
)

// ExitError carries a process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitFailure)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-mermaid",
		Short: "MCP server that renders Mermaid diagrams",
		Long: `mcp-mermaid exposes the generate_mermaid_diagram tool to MCP clients.
Diagrams are rendered by the Mermaid CLI (mmdc), which must be on PATH or
given with --renderer.

Settings are read from --config, then MCP_MERMAID_* environment variables,
then flags.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServer,
	}

	cmd.Version = Version
	cmd.SetVersionTemplate(fmt.Sprintf("mcp-mermaid %s\nBuild time: %s\nGit commit: %s\n", Version, BuildTime, GitCommit))

	f := cmd.Flags()
	f.StringP("transport", "t", server.TransportStdio, "Transport: stdio, sse or streamable")
	f.String("host", server.DefaultHost, "Listen host for HTTP transports")
	f.IntP("port", "p", server.DefaultPort, "Listen port for HTTP transports")
	f.StringP("endpoint", "e", "", "HTTP endpoint path (default /sse or /mcp)")
	f.String("config", "", "Path to a YAML config file")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", logging.FormatText, "Log format: text or json")
	f.String("renderer", render.DefaultCommand, "Mermaid CLI executable")
	f.Duration("render-timeout", time.Minute, "Per-diagram render timeout")
	f.Int("max-concurrent", 4, "Maximum renders in flight")

	return cmd
}

// loadConfig layers changed flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("transport") {
		cfg.Transport, _ = f.GetString("transport")
	}
	if f.Changed("host") {
		cfg.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		cfg.Port, _ = f.GetInt("port")
	}
	if f.Changed("endpoint") {
		cfg.Endpoint, _ = f.GetString("endpoint")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	if f.Changed("renderer") {
		cfg.Renderer.Command, _ = f.GetString("renderer")
	}
	if f.Changed("render-timeout") {
		cfg.Renderer.Timeout, _ = f.GetDuration("render-timeout")
	}
	if f.Changed("max-concurrent") {
		cfg.Renderer.MaxConcurrent, _ = f.GetInt("max-concurrent")
	}
	return cfg, cfg.Validate()
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return exitError(exitConfig, "invalid configuration: %v", err)
	}
	slog.SetDefault(logger)

	ctx := cmd.Context()
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	observer, err := telemetry.NewObserver(providers.Meter, providers.Tracer)
	if err != nil {
		return fmt.Errorf("initializing tool observability: %w", err)
	}

	backend := render.Limit(
		render.NewCLI(cfg.Renderer.CLIConfig(), logger),
		cfg.Renderer.MaxConcurrent,
		cfg.Renderer.Timeout,
	)

	srv, err := server.New(server.Options{
		Backend:  backend,
		Observer: observer,
		Logger:   logger,
		Version:  Version,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpCfg := cfg.HTTPConfig()
	httpCfg.Logger = logger
	transport, err := server.NewTransport(cfg.Transport, httpCfg)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	logger.Debug("configuration loaded",
		"version", Version,
		"renderer", cfg.Renderer.Command,
		"render_timeout", cfg.Renderer.Timeout,
		"max_concurrent", cfg.Renderer.MaxConcurrent,
	)
	if err := srv.Run(ctx, transport); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
