// Package structerr defines the canonical structured representation of an
// arbitrary failure value, and the normalizer and decoder that translate
// between Go failure values and the wire shape.
package structerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Namer is the capability check for failure values that carry their own
// canonical name.
type Namer interface {
	ErrorName() string
}

// StackTracer is the capability check for failure values that carry a
// captured stack, one frame per line.
type StackTracer interface {
	StackTrace() []string
}

// StructuredError is the canonical recursive error description. Exactly
// one of Object or Value is set: Object when the failure had the shape of
// a standard error record, Value as the escape hatch for arbitrary
// JSON-compatible failure values.
type StructuredError struct {
	Object *ObjectError
	Value  *ValueError
}

// ObjectError is a standard error record: name, message, captured stack
// lines, and an optional cause. Cause is always serialized, null when
// absent, so the decoder side has a stable shape to match against.
type ObjectError struct {
	Name       string           `json:"name"`
	Message    string           `json:"message"`
	StackLines []string         `json:"stackLines"`
	Cause      *StructuredError `json:"cause"`
}

// ValueError wraps a failure value that is not a standard error record.
type ValueError struct {
	Raw json.RawMessage
}

// IsObject reports whether the error is a standard error record.
func (e *StructuredError) IsObject() bool { return e != nil && e.Object != nil }

// IsValue reports whether the error is an opaque value.
func (e *StructuredError) IsValue() bool { return e != nil && e.Value != nil }

// MarshalJSON serializes an ObjectError as its record shape and a
// ValueError as the raw value itself.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	if e.Object != nil {
		obj := *e.Object
		if obj.StackLines == nil {
			obj.StackLines = []string{}
		}
		return json.Marshal(obj)
	}
	if e.Value != nil && len(e.Value.Raw) > 0 {
		return e.Value.Raw, nil
	}
	return []byte("null"), nil
}

// Normalize converts an arbitrary failure value into a StructuredError.
// It is total: every input produces a value, never an error.
func Normalize(v any) *StructuredError {
	if err, ok := v.(error); ok && err != nil {
		return normalizeError(err)
	}
	return &StructuredError{Value: &ValueError{Raw: marshalValue(v)}}
}

// NormalizePanic converts a recovered panic value into a StructuredError,
// attaching the stack text captured at the recovery site when the value
// normalizes to an error record. The goroutine header line is stripped.
func NormalizePanic(v any, stack []byte) *StructuredError {
	se := Normalize(v)
	if se.Object != nil && len(se.Object.StackLines) == 0 {
		se.Object.StackLines = splitStack(stack)
	}
	return se
}

func normalizeError(err error) *StructuredError {
	obj := &ObjectError{
		Name:    errorName(err),
		Message: err.Error(),
	}
	if tracer, ok := err.(StackTracer); ok {
		obj.StackLines = tracer.StackTrace()
	}
	if cause := errors.Unwrap(err); cause != nil {
		obj.Cause = normalizeError(cause)
	}
	return &StructuredError{Object: obj}
}

// errorName resolves a canonical name for an error value: the ErrorName
// capability when present, the exported Go type name when there is one,
// and "Error" otherwise (errors.New and fmt.Errorf values land here).
func errorName(err error) string {
	if namer, ok := err.(Namer); ok {
		return namer.ErrorName()
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		if r, _ := utf8.DecodeRuneInString(t.Name()); unicode.IsUpper(r) {
			return t.Name()
		}
	}
	return "Error"
}

func marshalValue(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		raw, _ = json.Marshal(fmt.Sprint(v))
	}
	return raw
}

func splitStack(stack []byte) []string {
	if len(stack) == 0 {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i <= len(stack); i++ {
		if i == len(stack) || stack[i] == '\n' {
			if i > start {
				lines = append(lines, string(stack[start:i]))
			}
			start = i + 1
		}
	}
	if len(lines) > 0 && isGoroutineHeader(lines[0]) {
		lines = lines[1:]
	}
	return lines
}

func isGoroutineHeader(line string) bool {
	const prefix = "goroutine "
	return len(line) > len(prefix) && line[:len(prefix)] == prefix
}

// Decode reconstructs a StructuredError from a serialized payload. It
// never fails: payloads with the name+message record shape decode as
// ObjectError, everything else (including invalid JSON) falls back to
// ValueError carrying the payload as-is.
func Decode(raw []byte) *StructuredError {
	var probe struct {
		Name       *string         `json:"name"`
		Message    *string         `json:"message"`
		StackLines []string        `json:"stackLines"`
		Cause      json.RawMessage `json:"cause"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Name != nil && probe.Message != nil {
		obj := &ObjectError{
			Name:       *probe.Name,
			Message:    *probe.Message,
			StackLines: probe.StackLines,
		}
		if len(probe.Cause) > 0 && string(probe.Cause) != "null" {
			obj.Cause = Decode(probe.Cause)
		}
		return &StructuredError{Object: obj}
	}
	return &StructuredError{Value: &ValueError{Raw: append(json.RawMessage(nil), raw...)}}
}
