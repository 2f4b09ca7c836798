package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// ErrorCode is the protocol-level classification of a failed call.
type ErrorCode string

const (
	CodeInvalidParams  ErrorCode = "InvalidParams"
	CodeMethodNotFound ErrorCode = "MethodNotFound"
	CodeInternalError  ErrorCode = "InternalError"
)

// JSONRPC returns the JSON-RPC 2.0 error code for c.
func (c ErrorCode) JSONRPC() int64 {
	switch c {
	case CodeInvalidParams:
		return jsonrpc.CodeInvalidParams
	case CodeMethodNotFound:
		return jsonrpc.CodeMethodNotFound
	default:
		return jsonrpc.CodeInternalError
	}
}

const fallbackMessage = "internal error"

// ProtocolError is the single error outcome of a tool call.
type ProtocolError struct {
	Code    ErrorCode
	Message string

	// Violations is set for CodeInvalidParams.
	Violations Violations
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WireError converts e to the error the MCP SDK writes to the wire.
func (e *ProtocolError) WireError() *jsonrpc.Error {
	data, _ := json.Marshal(struct {
		Code       ErrorCode  `json:"code"`
		Violations Violations `json:"violations,omitempty"`
	}{e.Code, e.Violations})

	return &jsonrpc.Error{
		Code:    e.Code.JSONRPC(),
		Message: e.Message,
		Data:    data,
	}
}

type failureKind int

const (
	failureRaw failureKind = iota
	failureClassified
	failureSchema
	failureUnknownTool
)

// Failure is a failed step of a tool call, tagged with where it came from.
// Build one with Classified, SchemaViolation, UnknownTool, Raw or FromError.
type Failure struct {
	kind       failureKind
	classified *ProtocolError
	violations Violations
	tool       string
	err        error
}

// Classified wraps an error that already carries its protocol code.
func Classified(e *ProtocolError) Failure {
	return Failure{kind: failureClassified, classified: e}
}

// SchemaViolation wraps the result of a failed validation.
func SchemaViolation(vs Violations) Failure {
	return Failure{kind: failureSchema, violations: vs}
}

// UnknownTool records a call to a tool that is not registered.
func UnknownTool(name string) Failure {
	return Failure{kind: failureUnknownTool, tool: name}
}

// Raw wraps any other error, including backend failures.
func Raw(err error) Failure {
	return Failure{kind: failureRaw, err: err}
}

// FromError tags err as Classified when its chain holds a *ProtocolError
// and as Raw otherwise.
func FromError(err error) Failure {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return Classified(pe)
	}
	return Raw(err)
}

// ToProtocolError maps f to its protocol error. Classified failures are
// returned unchanged.
func ToProtocolError(f Failure) *ProtocolError {
	switch f.kind {
	case failureClassified:
		if f.classified != nil {
			return f.classified
		}
		return &ProtocolError{Code: CodeInternalError, Message: fallbackMessage}

	case failureSchema:
		return &ProtocolError{
			Code:       CodeInvalidParams,
			Message:    "invalid arguments: " + f.violations.String(),
			Violations: f.violations,
		}

	case failureUnknownTool:
		return &ProtocolError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("unknown tool: %q", f.tool),
		}

	default:
		msg := fallbackMessage
		if f.err != nil && f.err.Error() != "" {
			msg = f.err.Error()
		}
		return &ProtocolError{Code: CodeInternalError, Message: msg}
	}
}
