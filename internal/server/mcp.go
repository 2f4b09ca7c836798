package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodCallTool = "tools/call"

// ServerName identifies this server during the MCP handshake.
const ServerName = "mcp-mermaid"

// Factory builds a fresh MCP server. Transports call it once per session or
// once per process, as their protocol requires.
type Factory func() *mcp.Server

// NewFactory returns a Factory whose servers list the dispatcher's tools and
// route every tools/call through it.
func NewFactory(d *Dispatcher, version string, logger *slog.Logger) Factory {
	return func() *mcp.Server {
		return NewMCPServer(d, version, logger)
	}
}

// NewMCPServer builds an MCP server backed by d.
//
// Tool calls bypass the SDK's own tool lookup so that unknown tool names are
// reported as MethodNotFound.
func NewMCPServer(d *Dispatcher, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Title:   "Mermaid diagram generator",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: "Use generate_mermaid_diagram to render Mermaid source as a PNG image or SVG markup.",
		Logger:       logger,
	})
	for _, desc := range d.Registry().List() {
		srv.AddTool(toMCPTool(desc), d.callTool)
	}
	srv.AddReceivingMiddleware(d.routeToolCalls)
	return srv
}

func (d *Dispatcher) routeToolCalls(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		call, ok := req.(*mcp.CallToolRequest)
		if method != methodCallTool || !ok {
			return next(ctx, method, req)
		}
		res, err := d.callTool(ctx, call)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

// callTool is the mcp.ToolHandler for every registered tool.
func (d *Dispatcher) callTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArguments(req.Params.Arguments)
	if err != nil {
		return nil, ToProtocolError(SchemaViolation(Violations{{Field: "arguments", Reason: err.Error()}})).WireError()
	}

	resp, err := d.Dispatch(ctx, Invocation{ToolName: req.Params.Name, Arguments: args})
	if err != nil {
		return nil, ToProtocolError(FromError(err)).WireError()
	}
	return toCallToolResult(resp), nil
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return args, nil
	}
	if trimmed[0] != '{' {
		return nil, errors.New("must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, errors.New("must be a JSON object")
	}
	return args, nil
}

func toMCPTool(desc ToolDescriptor) *mcp.Tool {
	return &mcp.Tool{
		Name:        desc.Name,
		Title:       desc.Title,
		Description: desc.Description,
		InputSchema: desc.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:          desc.Title,
			ReadOnlyHint:   desc.ReadOnly,
			IdempotentHint: desc.Idempotent,
			OpenWorldHint:  new(bool),
		},
	}
}

func toCallToolResult(resp *ToolResponse) *mcp.CallToolResult {
	res := &mcp.CallToolResult{Content: make([]mcp.Content, 0, len(resp.Content))}
	for _, item := range resp.Content {
		switch item.Kind {
		case ContentImage:
			res.Content = append(res.Content, &mcp.ImageContent{Data: item.Data, MIMEType: item.MIMEType})
		default:
			res.Content = append(res.Content, &mcp.TextContent{Text: item.Text})
		}
	}
	return res
}
