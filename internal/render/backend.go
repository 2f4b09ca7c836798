// Package render turns Mermaid diagram source into SVG markup and a PNG
// screenshot.
//
// The Backend interface is what the MCP server consumes. CLI drives the
// Mermaid command line renderer (mmdc), which lays the diagram out in a
// headless browser; Limit wraps any Backend with a per-call timeout and a
// bound on concurrent renders.
package render

import (
	"context"
	"errors"
	"slices"
)

// Sentinel errors for render failures.
var (
	ErrEmptySource      = errors.New("diagram source is empty")
	ErrUnsupportedTheme = errors.New("unsupported theme")
	ErrRendererNotFound = errors.New("renderer executable not found")
	ErrTimeout          = errors.New("render timed out")
	ErrRenderFailed     = errors.New("render failed")
)

// Themes lists the Mermaid themes the renderer accepts.
var Themes = []string{"default", "base", "forest", "dark", "neutral"}

// Request is the input to a single render.
type Request struct {
	// Source is the Mermaid diagram text.
	Source string

	// Theme is one of Themes, or empty for the renderer default.
	Theme string

	// BackgroundColor is a colour literal, a CSS colour name, "transparent",
	// or empty for the renderer default.
	BackgroundColor string
}

// Result is the output of a successful render.
type Result struct {
	// ID uniquely identifies this render.
	ID string

	// SVG is the rendered vector markup.
	SVG string

	// Screenshot is the rasterised diagram as PNG bytes.
	Screenshot []byte
}

// Backend renders diagrams. Implementations must be safe for concurrent use.
type Backend interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

// Func adapts an ordinary function to the Backend interface.
type Func func(ctx context.Context, req Request) (*Result, error)

// Render calls f(ctx, req).
func (f Func) Render(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// IsSupportedTheme reports whether theme is empty or one of Themes.
func IsSupportedTheme(theme string) bool {
	return theme == "" || slices.Contains(Themes, theme)
}
