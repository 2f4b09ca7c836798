// Package config provides the server configuration.
//
// Values are layered: defaults, then an optional YAML file, then
// MCP_MERMAID_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/badbboy/mcp-mermaid/internal/logging"
	"github.com/badbboy/mcp-mermaid/internal/render"
	"github.com/badbboy/mcp-mermaid/internal/server"
)

// Config holds runtime configuration for mcp-mermaid.
type Config struct {
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	// Endpoint is the HTTP path of the SSE or streamable endpoint. Empty
	// selects the transport's default.
	Endpoint string `yaml:"endpoint"`

	Log       Log       `yaml:"log"`
	Renderer  Renderer  `yaml:"renderer"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Renderer configures the Mermaid CLI backend.
type Renderer struct {
	Command         string        `yaml:"command"`
	Args            []string      `yaml:"args,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	Scale           float64       `yaml:"scale"`
	PuppeteerConfig string        `yaml:"puppeteer_config"`
	MaxImageWidth   int           `yaml:"max_image_width"`
	MaxImageHeight  int           `yaml:"max_image_height"`
	TempDir         string        `yaml:"temp_dir"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	// OTLPEndpoint is the OTLP/HTTP base URL, e.g. "http://localhost:4318".
	// Empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Environment variable names.
const (
	EnvTransport       = "MCP_MERMAID_TRANSPORT"
	EnvHost            = "MCP_MERMAID_HOST"
	EnvPort            = "MCP_MERMAID_PORT"
	EnvEndpoint        = "MCP_MERMAID_ENDPOINT"
	EnvLogLevel        = "MCP_MERMAID_LOG_LEVEL"
	EnvLogFormat       = "MCP_MERMAID_LOG_FORMAT"
	EnvRenderer        = "MCP_MERMAID_RENDERER"
	EnvRenderTimeout   = "MCP_MERMAID_RENDER_TIMEOUT"
	EnvMaxConcurrent   = "MCP_MERMAID_MAX_CONCURRENT"
	EnvPuppeteerConfig = "MCP_MERMAID_PUPPETEER_CONFIG"
	EnvOTLPEndpoint    = "MCP_MERMAID_OTLP_ENDPOINT"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Transport: server.TransportStdio,
		Host:      server.DefaultHost,
		Port:      server.DefaultPort,
		Log: Log{
			Level:  "info",
			Format: logging.FormatText,
		},
		Renderer: Renderer{
			Command:       render.DefaultCommand,
			Timeout:       60 * time.Second,
			MaxConcurrent: 4,
		},
		Telemetry: Telemetry{
			ServiceName: server.ServerName,
		},
	}
}

// Load returns Default overlaid with the YAML file at path (skipped when
// path is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- path comes from the operator.
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	envOr := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	c.Transport = envOr(EnvTransport, c.Transport)
	c.Host = envOr(EnvHost, c.Host)
	c.Endpoint = envOr(EnvEndpoint, c.Endpoint)
	c.Log.Level = envOr(EnvLogLevel, c.Log.Level)
	c.Log.Format = envOr(EnvLogFormat, c.Log.Format)
	c.Renderer.Command = envOr(EnvRenderer, c.Renderer.Command)
	c.Renderer.PuppeteerConfig = envOr(EnvPuppeteerConfig, c.Renderer.PuppeteerConfig)
	c.Telemetry.OTLPEndpoint = envOr(EnvOTLPEndpoint, c.Telemetry.OTLPEndpoint)

	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = port
	}
	if v := getenv(EnvMaxConcurrent); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxConcurrent, err)
		}
		c.Renderer.MaxConcurrent = n
	}
	if v := getenv(EnvRenderTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRenderTimeout, err)
		}
		c.Renderer.Timeout = d
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	switch c.Transport {
	case server.TransportStdio, server.TransportSSE, server.TransportStreamable, "http":
	default:
		errs = append(errs, fmt.Errorf("transport %q is not one of %s, %s, %s",
			c.Transport, server.TransportStdio, server.TransportSSE, server.TransportStreamable))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if c.Endpoint != "" && !strings.HasPrefix(c.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("endpoint %q must start with /", c.Endpoint))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log format %q is not one of text, json", c.Log.Format))
	}
	if c.Renderer.Timeout < 0 {
		errs = append(errs, errors.New("renderer timeout must not be negative"))
	}
	if c.Renderer.MaxConcurrent < 0 {
		errs = append(errs, errors.New("renderer max_concurrent must not be negative"))
	}
	if c.Renderer.Width < 0 || c.Renderer.Height < 0 || c.Renderer.Scale < 0 {
		errs = append(errs, errors.New("renderer width, height and scale must not be negative"))
	}
	if c.Renderer.MaxImageWidth < 0 || c.Renderer.MaxImageHeight < 0 {
		errs = append(errs, errors.New("renderer max image size must not be negative"))
	}
	return errors.Join(errs...)
}

// CLIConfig converts the renderer settings for render.NewCLI.
func (r Renderer) CLIConfig() render.CLIConfig {
	return render.CLIConfig{
		Command:         r.Command,
		ExtraArgs:       r.Args,
		Width:           r.Width,
		Height:          r.Height,
		Scale:           r.Scale,
		PuppeteerConfig: r.PuppeteerConfig,
		MaxWidth:        r.MaxImageWidth,
		MaxHeight:       r.MaxImageHeight,
		TempDir:         r.TempDir,
	}
}

// HTTPConfig converts the listener settings for server.NewTransport.
func (c Config) HTTPConfig() server.HTTPConfig {
	return server.HTTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		Endpoint: c.Endpoint,
	}
}
