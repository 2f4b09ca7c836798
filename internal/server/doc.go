// Package server implements the MCP (Model Context Protocol) server for
// Mermaid diagram generation.
//
// The server exposes a single tool, generate_mermaid_diagram, over one of
// three transports. It is built on the official MCP Go SDK; this package
// supplies the tool pipeline that sits behind it.
//
// # Pipeline
//
// Every tools/call request goes through the Dispatcher:
//
//	name check → Validate → Orchestrator.Render → response
//
// A failure at any step ends the call with exactly one *ProtocolError:
//   - InvalidParams (-32602): arguments failed the input schema
//   - MethodNotFound (-32601): the tool name is not registered
//   - InternalError (-32603): the render backend or anything else failed
//
// The error's data member carries {"code": ..., "violations": [...]} so
// clients can tell the cases apart without parsing messages.
//
// # Tool
//
// generate_mermaid_diagram takes:
//   - mermaid (required): diagram source
//   - theme: default, base, forest, dark or neutral
//   - backgroundColor: colour name, hex literal or "transparent"
//   - outputType: png (default), svg or mermaid
//
// and returns one content item: a PNG image, the SVG markup as text, or the
// source echoed back as text.
//
// # Transports
//
//   - Stdio: newline-delimited JSON-RPC on stdin/stdout, one session
//   - SSE: server-sent events at /sse (configurable)
//   - StreamableHTTP: streamable HTTP at /mcp (configurable)
//
// HTTP transports also serve GET /health. Each session gets a fresh
// *mcp.Server from the Factory; all of them share one Dispatcher.
//
// # Usage
//
//	srv, err := server.New(server.Options{Backend: backend})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx, &server.Stdio{})
package server
