package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestToProtocolError(t *testing.T) {
	tests := []struct {
		name        string
		failure     Failure
		wantCode    ErrorCode
		wantMessage string
	}{
		{
			name:        "schema violation",
			failure:     SchemaViolation(Violations{{Field: "mermaid", Reason: "is required"}}),
			wantCode:    CodeInvalidParams,
			wantMessage: "invalid arguments: mermaid: is required",
		},
		{
			name:        "unknown tool",
			failure:     UnknownTool("not_a_real_tool"),
			wantCode:    CodeMethodNotFound,
			wantMessage: `unknown tool: "not_a_real_tool"`,
		},
		{
			name:        "raw error",
			failure:     Raw(errors.New("render failed: Parse error on line 1")),
			wantCode:    CodeInternalError,
			wantMessage: "render failed: Parse error on line 1",
		},
		{
			name:        "raw nil",
			failure:     Raw(nil),
			wantCode:    CodeInternalError,
			wantMessage: "internal error",
		},
		{
			name:        "raw without message",
			failure:     Raw(emptyError{}),
			wantCode:    CodeInternalError,
			wantMessage: "internal error",
		},
		{
			name:        "classified nil",
			failure:     Classified(nil),
			wantCode:    CodeInternalError,
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToProtocolError(tt.failure)
			if got.Code != tt.wantCode {
				t.Errorf("Code: got %s, want %s", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message: got %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestToProtocolError_Idempotent(t *testing.T) {
	orig := &ProtocolError{Code: CodeInvalidParams, Message: "mermaid: is required"}

	got := ToProtocolError(Classified(orig))
	if got != orig {
		t.Errorf("classified error should pass through unchanged, got %+v", got)
	}

	// Mapping the result again keeps the specific code.
	if again := ToProtocolError(FromError(got)); again != orig {
		t.Errorf("second mapping: got %+v, want %+v", again, orig)
	}
}

func TestFromError(t *testing.T) {
	pe := &ProtocolError{Code: CodeMethodNotFound, Message: "x"}
	wrapped := fmt.Errorf("dispatch: %w", pe)

	if got := ToProtocolError(FromError(wrapped)); got != pe {
		t.Errorf("wrapped protocol error: got %+v, want %+v", got, pe)
	}
	if got := ToProtocolError(FromError(errors.New("boom"))); got.Code != CodeInternalError {
		t.Errorf("plain error: got %s, want InternalError", got.Code)
	}
}

func TestProtocolError_WireError(t *testing.T) {
	tests := []struct {
		err      *ProtocolError
		wantCode int64
	}{
		{&ProtocolError{Code: CodeInvalidParams, Message: "m", Violations: Violations{{Field: "mermaid", Reason: "is required"}}}, jsonrpc.CodeInvalidParams},
		{&ProtocolError{Code: CodeMethodNotFound, Message: "m"}, jsonrpc.CodeMethodNotFound},
		{&ProtocolError{Code: CodeInternalError, Message: "m"}, jsonrpc.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			wire := tt.err.WireError()
			if wire.Code != tt.wantCode {
				t.Errorf("Code: got %d, want %d", wire.Code, tt.wantCode)
			}
			if wire.Message != tt.err.Message {
				t.Errorf("Message: got %q, want %q", wire.Message, tt.err.Message)
			}

			var data struct {
				Code       string      `json:"code"`
				Violations []Violation `json:"violations"`
			}
			if err := json.Unmarshal(wire.Data, &data); err != nil {
				t.Fatalf("data is not JSON: %v", err)
			}
			if data.Code != string(tt.err.Code) {
				t.Errorf("data.code: got %s, want %s", data.Code, tt.err.Code)
			}
			if len(data.Violations) != len(tt.err.Violations) {
				t.Errorf("data.violations: got %d, want %d", len(data.Violations), len(tt.err.Violations))
			}
		})
	}
}

func TestProtocolError_Error(t *testing.T) {
	err := &ProtocolError{Code: CodeMethodNotFound, Message: `unknown tool: "x"`}
	if got := err.Error(); !strings.HasPrefix(got, "MethodNotFound") {
		t.Errorf("Error(): got %q", got)
	}
}
