package server

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
)

// OutputType selects the response shape of a diagram call.
type OutputType string

const (
	OutputPNG     OutputType = "png"
	OutputSVG     OutputType = "svg"
	OutputMermaid OutputType = "mermaid"
)

// ValidatedArguments are the typed arguments of generate_mermaid_diagram.
// They are only ever built by Validate from an argument bag that passed the
// schema.
type ValidatedArguments struct {
	Mermaid         string
	Theme           string
	BackgroundColor string
	OutputType      OutputType
}

// Violation is one schema failure.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// Violations is a list of schema failures, sorted by field.
type Violations []Violation

func (vs Violations) String() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Fields returns the distinct field names in vs.
func (vs Violations) Fields() []string {
	var fields []string
	for _, v := range vs {
		if !slices.Contains(fields, v.Field) {
			fields = append(fields, v.Field)
		}
	}
	return fields
}

// Validate checks raw against schema and, if it passes, builds the typed
// arguments with defaults applied. It has no side effects.
func Validate(schema *jsonschema.Schema, raw map[string]any) (*ValidatedArguments, Violations) {
	if vs := CheckObject(schema, raw); len(vs) > 0 {
		return nil, vs
	}

	args := &ValidatedArguments{OutputType: OutputPNG}
	args.Mermaid, _ = raw["mermaid"].(string)
	args.Theme, _ = raw["theme"].(string)
	args.BackgroundColor, _ = raw["backgroundColor"].(string)
	if ot, ok := raw["outputType"].(string); ok {
		args.OutputType = OutputType(ot)
	}
	return args, nil
}

// CheckObject interprets the property keywords of an object schema (type,
// required, minLength, pattern, enum) against raw. Properties the schema
// does not declare are ignored.
func CheckObject(schema *jsonschema.Schema, raw map[string]any) Violations {
	var vs Violations
	for _, name := range schema.Required {
		if _, ok := raw[name]; !ok {
			vs = append(vs, Violation{Field: name, Reason: "is required"})
		}
	}

	for name, prop := range schema.Properties {
		v, ok := raw[name]
		if !ok || prop == nil {
			continue
		}
		if reason := checkValue(prop, v); reason != "" {
			vs = append(vs, Violation{Field: name, Reason: reason})
		}
	}

	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Field < vs[j].Field })
	return vs
}

// checkValue returns the first reason v fails s, or "".
func checkValue(s *jsonschema.Schema, v any) string {
	types := s.Types
	if s.Type != "" {
		types = []string{s.Type}
	}
	if len(types) > 0 && !slices.ContainsFunc(types, func(t string) bool { return hasType(v, t) }) {
		return "must be of type " + strings.Join(types, " or ")
	}

	if str, ok := v.(string); ok && s.MinLength != nil {
		if n := utf8.RuneCountInString(str); n < *s.MinLength {
			if *s.MinLength == 1 {
				return "must not be empty"
			}
			return fmt.Sprintf("must be at least %d characters long", *s.MinLength)
		}
	}

	if str, ok := v.(string); ok && s.Pattern != "" {
		re, err := compilePattern(s.Pattern)
		if err != nil {
			return "has an invalid pattern in its schema"
		}
		if !re.MatchString(str) {
			return "must match pattern " + s.Pattern
		}
	}

	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return reflect.DeepEqual(e, v) }) {
		allowed := make([]string, len(s.Enum))
		for i, e := range s.Enum {
			allowed[i] = fmt.Sprint(e)
		}
		return "must be one of " + strings.Join(allowed, ", ")
	}
	return ""
}

var patterns sync.Map // pattern string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patterns.Store(p, re)
	return re, nil
}

// hasType reports whether a value decoded by encoding/json has JSON type t.
func hasType(v any, t string) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "integer":
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "null":
		return v == nil
	}
	return false
}
