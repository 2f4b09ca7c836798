package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/badbboy/mcp-mermaid/internal/render"
)

// MermaidToolName is the name clients use to call the diagram tool.
const MermaidToolName = "generate_mermaid_diagram"

// ToolDescriptor is the static declaration of one tool.
type ToolDescriptor struct {
	Name        string
	Title       string
	Description string
	InputSchema *jsonschema.Schema

	// ReadOnly and Idempotent are advertised to clients as tool annotations.
	ReadOnly   bool
	Idempotent bool
}

// MermaidTool returns the descriptor for generate_mermaid_diagram.
func MermaidTool() ToolDescriptor {
	return ToolDescriptor{
		Name:  MermaidToolName,
		Title: "Generate Mermaid Diagram",
		Description: "Generate a diagram from Mermaid source. Returns a PNG image by default, " +
			"the rendered SVG markup when outputType is \"svg\", or the source itself when " +
			"outputType is \"mermaid\".",
		InputSchema: mermaidInputSchema(),
		ReadOnly:    true,
		Idempotent:  true,
	}
}

func mermaidInputSchema() *jsonschema.Schema {
	themes := make([]any, len(render.Themes))
	for i, t := range render.Themes {
		themes[i] = t
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"mermaid": {
				Type:        "string",
				MinLength:   jsonschema.Ptr(1),
				Pattern:     `\S`,
				Description: "The Mermaid diagram source, e.g. \"graph TD; A-->B\".",
			},
			"theme": {
				Type: "string",
				Description: "Theme for the diagram: " + strings.Join(render.Themes, ", ") +
					". Defaults to default.",
				Default:  json.RawMessage(`"default"`),
				Examples: themes,
			},
			"backgroundColor": {
				Type:        "string",
				Description: "Background colour, e.g. \"white\", \"#F0F0F0\" or \"transparent\".",
				Default:     json.RawMessage(`"white"`),
			},
			"outputType": {
				Type:        "string",
				Description: "Response shape: png (image), svg (markup) or mermaid (source echo).",
				Enum:        []any{string(OutputPNG), string(OutputSVG), string(OutputMermaid)},
				Default:     json.RawMessage(`"png"`),
			},
		},
		PropertyOrder: []string{"mermaid", "theme", "backgroundColor", "outputType"},
		Required:      []string{"mermaid"},
	}
}

// Registry is the read-only set of tools a dispatcher accepts. It is built
// once at startup and safe for concurrent use.
type Registry struct {
	tools  []ToolDescriptor
	byName map[string]int
}

// NewRegistry validates and indexes descs. Every input schema must resolve.
func NewRegistry(descs ...ToolDescriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, errors.New("registry needs at least one tool")
	}

	r := &Registry{byName: make(map[string]int, len(descs))}
	for _, d := range descs {
		if d.Name == "" {
			return nil, errors.New("tool name is required")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		if d.InputSchema == nil {
			return nil, fmt.Errorf("tool %q has no input schema", d.Name)
		}
		if d.InputSchema.Type != "object" {
			return nil, fmt.Errorf("tool %q: input schema type must be object, got %q", d.Name, d.InputSchema.Type)
		}
		if _, err := d.InputSchema.Resolve(nil); err != nil {
			return nil, fmt.Errorf("tool %q: invalid input schema: %w", d.Name, err)
		}
		r.byName[d.Name] = len(r.tools)
		r.tools = append(r.tools, d)
	}
	return r, nil
}

// List returns the registered tools in declaration order.
func (r *Registry) List() []ToolDescriptor {
	out := make([]ToolDescriptor, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (ToolDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return r.tools[i], true
}
