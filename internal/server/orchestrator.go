package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/badbboy/mcp-mermaid/internal/imaging"
	"github.com/badbboy/mcp-mermaid/internal/render"
)

var (
	// ErrNoResult is returned when the backend reports success without a result.
	ErrNoResult = errors.New("backend returned no result")

	// ErrNoScreenshot is returned for png output when the backend result has
	// no screenshot.
	ErrNoScreenshot = errors.New("backend returned no screenshot")
)

// Orchestrator renders validated arguments and shapes the backend result
// into a single content item.
type Orchestrator struct {
	backend render.Backend
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator over backend. A nil logger uses
// slog.Default().
func NewOrchestrator(backend render.Backend, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{backend: backend, logger: logger}
}

// Render calls the backend once and shapes its result by args.OutputType.
// Backend errors are returned unchanged.
func (o *Orchestrator) Render(ctx context.Context, args *ValidatedArguments) (*ToolResponse, error) {
	o.logger.DebugContext(ctx, "rendering diagram",
		"theme", args.Theme,
		"background_color", args.BackgroundColor,
		"output_type", args.OutputType,
		"source_length", len(args.Mermaid),
	)

	res, err := o.backend.Render(ctx, render.Request{
		Source:          args.Mermaid,
		Theme:           args.Theme,
		BackgroundColor: args.BackgroundColor,
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNoResult
	}

	var item ContentItem
	switch args.OutputType {
	case OutputMermaid:
		item = TextContent(args.Mermaid)
	case OutputSVG:
		item = TextContent(res.SVG)
	default:
		if len(res.Screenshot) == 0 {
			return nil, ErrNoScreenshot
		}
		item = ImageContent(res.Screenshot, MIMETypePNG)
	}

	attrs := []any{
		"render_id", res.ID,
		"content_type", item.Kind,
		"length", item.Len(),
	}
	if item.Kind == ContentImage && o.logger.Enabled(ctx, slog.LevelDebug) {
		if info, err := imaging.Inspect(item.Data); err == nil {
			attrs = append(attrs, "width", info.Width, "height", info.Height)
		}
	}
	o.logger.DebugContext(ctx, "rendered diagram", attrs...)

	return &ToolResponse{Content: []ContentItem{item}}, nil
}
