package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/badbboy/mcp-mermaid/internal/imaging"
)

// DefaultCommand is the Mermaid CLI executable name.
const DefaultCommand = "mmdc"

// CLIConfig configures the Mermaid CLI backend.
type CLIConfig struct {
	// Command is the renderer executable. Defaults to DefaultCommand.
	Command string

	// ExtraArgs are appended to every invocation.
	ExtraArgs []string

	// Width and Height set the browser page size in pixels. Zero keeps the
	// renderer default.
	Width  int
	Height int

	// Scale is the device scale factor. Zero keeps the renderer default.
	Scale float64

	// PuppeteerConfig is a path to a puppeteer JSON config file, e.g. to pass
	// --no-sandbox when running as root in a container.
	PuppeteerConfig string

	// MaxWidth and MaxHeight bound the PNG screenshot; see imaging.Options.
	MaxWidth  int
	MaxHeight int

	// TempDir is the parent directory for per-render work directories.
	// Empty means os.TempDir().
	TempDir string
}

// runFunc executes the renderer and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CLI renders diagrams by running the Mermaid CLI once for SVG and once for
// PNG in a private temporary directory. It is safe for concurrent use; each
// call gets its own directory.
type CLI struct {
	cfg    CLIConfig
	logger *slog.Logger
	run    runFunc
}

// NewCLI creates a Mermaid CLI backend.
func NewCLI(cfg CLIConfig, logger *slog.Logger) *CLI {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{cfg: cfg, logger: logger, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Render implements Backend.
func (c *CLI) Render(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, ErrEmptySource
	}
	if !IsSupportedTheme(req.Theme) {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedTheme, req.Theme, strings.Join(Themes, ", "))
	}
	bg, err := imaging.ParseBackground(req.BackgroundColor)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(c.cfg.TempDir, "mcp-mermaid-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "diagram.mmd")
	if err := os.WriteFile(input, []byte(req.Source), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write diagram source: %w", err)
	}

	svgPath := filepath.Join(dir, "diagram.svg")
	if err := c.invoke(ctx, input, svgPath, req.Theme, bg); err != nil {
		return nil, err
	}
	pngPath := filepath.Join(dir, "diagram.png")
	if err := c.invoke(ctx, input, pngPath, req.Theme, bg); err != nil {
		return nil, err
	}

	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading svg output: %v", ErrRenderFailed, err)
	}
	screenshot, err := os.ReadFile(pngPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading png output: %v", ErrRenderFailed, err)
	}

	screenshot, err = imaging.Process(screenshot, imaging.Options{
		MaxWidth:   c.cfg.MaxWidth,
		MaxHeight:  c.cfg.MaxHeight,
		Background: bg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: post-processing screenshot: %v", ErrRenderFailed, err)
	}

	return &Result{
		ID:         uuid.NewString(),
		SVG:        string(svg),
		Screenshot: screenshot,
	}, nil
}

// invoke runs the renderer for one output file; the output format follows
// the file extension.
func (c *CLI) invoke(ctx context.Context, input, output, theme string, bg imaging.Background) error {
	args := c.args(input, output, theme, bg)
	c.logger.Debug("running renderer", "command", c.cfg.Command, "args", args)

	out, err := c.run(ctx, c.cfg.Command, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRendererNotFound, c.cfg.Command)
	}
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrRenderFailed, msg)
}

func (c *CLI) args(input, output, theme string, bg imaging.Background) []string {
	args := []string{"-i", input, "-o", output, "-q"}
	if theme != "" {
		args = append(args, "-t", theme)
	}
	if bg.Raw != "" {
		if bg.Transparent {
			args = append(args, "-b", imaging.Transparent)
		} else {
			args = append(args, "-b", bg.Hex())
		}
	}
	if c.cfg.Width > 0 {
		args = append(args, "-w", strconv.Itoa(c.cfg.Width))
	}
	if c.cfg.Height > 0 {
		args = append(args, "-H", strconv.Itoa(c.cfg.Height))
	}
	if c.cfg.Scale > 0 {
		args = append(args, "-s", strconv.FormatFloat(c.cfg.Scale, 'f', -1, 64))
	}
	if c.cfg.PuppeteerConfig != "" {
		args = append(args, "-p", c.cfg.PuppeteerConfig)
	}
	return append(args, c.cfg.ExtraArgs...)
}
