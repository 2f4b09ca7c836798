package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/badbboy/mcp-mermaid/internal/render"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="8" height="4"></svg>`

// pngBytes returns a small valid PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// stubBackend returns a fixed result and records requests.
type stubBackend struct {
	result *render.Result
	err    error

	mu       sync.Mutex
	requests []render.Request
}

func (b *stubBackend) Render(_ context.Context, req render.Request) (*render.Result, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.result, nil
}

func newStubBackend(t *testing.T) *stubBackend {
	return &stubBackend{result: &render.Result{ID: "r1", SVG: testSVG, Screenshot: pngBytes(t, 8, 4)}}
}

func TestOrchestrator_Render(t *testing.T) {
	backend := newStubBackend(t)
	o := NewOrchestrator(backend, nil)

	tests := []struct {
		name       string
		outputType OutputType
		wantKind   ContentKind
		check      func(t *testing.T, item ContentItem)
	}{
		{"mermaid echoes source", OutputMermaid, ContentText, func(t *testing.T, item ContentItem) {
			if item.Text != "graph TD; A-->B" {
				t.Errorf("Text: got %q, want the original source", item.Text)
			}
		}},
		{"svg returns markup", OutputSVG, ContentText, func(t *testing.T, item ContentItem) {
			if item.Text != testSVG {
				t.Errorf("Text: got %q, want backend SVG", item.Text)
			}
		}},
		{"png returns image", OutputPNG, ContentImage, func(t *testing.T, item ContentItem) {
			if item.MIMEType != MIMETypePNG {
				t.Errorf("MIMEType: got %s, want %s", item.MIMEType, MIMETypePNG)
			}
			if !bytes.Equal(item.Data, backend.result.Screenshot) {
				t.Error("Data should be the backend screenshot")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := o.Render(context.Background(), &ValidatedArguments{
				Mermaid:    "graph TD; A-->B",
				OutputType: tt.outputType,
			})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if len(resp.Content) != 1 {
				t.Fatalf("content items: got %d, want 1", len(resp.Content))
			}
			if resp.Content[0].Kind != tt.wantKind {
				t.Errorf("Kind: got %s, want %s", resp.Content[0].Kind, tt.wantKind)
			}
			tt.check(t, resp.Content[0])
		})
	}
}

func TestOrchestrator_PassesArguments(t *testing.T) {
	backend := newStubBackend(t)
	o := NewOrchestrator(backend, nil)

	_, err := o.Render(context.Background(), &ValidatedArguments{
		Mermaid:         "graph LR; X-->Y",
		Theme:           "forest",
		BackgroundColor: "#F0F0F0",
		OutputType:      OutputSVG,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := render.Request{Source: "graph LR; X-->Y", Theme: "forest", BackgroundColor: "#F0F0F0"}
	if len(backend.requests) != 1 || backend.requests[0] != want {
		t.Errorf("requests: got %+v, want [%+v]", backend.requests, want)
	}
}

func TestOrchestrator_MermaidEchoIgnoresBackendCopy(t *testing.T) {
	backend := &stubBackend{result: &render.Result{ID: "r", SVG: "normalised"}}
	o := NewOrchestrator(backend, nil)

	src := "graph TD\n  A -->  B\t"
	resp, err := o.Render(context.Background(), &ValidatedArguments{Mermaid: src, OutputType: OutputMermaid})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if resp.Content[0].Text != src {
		t.Errorf("Text: got %q, want %q", resp.Content[0].Text, src)
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	boom := errors.New("Parse error on line 1")

	tests := []struct {
		name    string
		backend *stubBackend
		args    ValidatedArguments
		wantErr error
	}{
		{"backend failure", &stubBackend{err: boom}, ValidatedArguments{Mermaid: "x", OutputType: OutputSVG}, boom},
		{"nil result", &stubBackend{}, ValidatedArguments{Mermaid: "x", OutputType: OutputSVG}, ErrNoResult},
		{"missing screenshot", &stubBackend{result: &render.Result{ID: "r", SVG: testSVG}}, ValidatedArguments{Mermaid: "x", OutputType: OutputPNG}, ErrNoScreenshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(tt.backend, nil)
			resp, err := o.Render(context.Background(), &tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error: got %v, want %v", err, tt.wantErr)
			}
			if resp != nil {
				t.Errorf("response should be nil on error, got %+v", resp)
			}
		})
	}
}

func TestOrchestrator_LogsShape(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := NewOrchestrator(newStubBackend(t), logger)

	if _, err := o.Render(context.Background(), &ValidatedArguments{Mermaid: "graph TD", OutputType: OutputPNG}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"rendering diagram", "rendered diagram", "content_type=image", "width=8", "height=4"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
