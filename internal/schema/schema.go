// Package schema validates tool-call arguments against the JSON schemas
// that tool providers declare for their tools. Schemas arrive over the wire
// as generic maps, so validation works on map[string]any rather than typed
// structs.
package schema

import (
	"fmt"
)

// ValidationError reports a single argument that failed schema validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// Validate checks args against a JSON schema of type "object". Required
// fields must be present and declared properties must match their declared
// type. Arguments not covered by the schema pass through untouched, matching
// the permissive behavior of most tool servers. A nil or empty schema
// accepts anything.
func Validate(args map[string]any, s map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	for _, name := range requiredFields(s) {
		if _, ok := args[name]; !ok {
			return &ValidationError{Field: name, Message: "required argument is missing"}
		}
	}

	properties, _ := s["properties"].(map[string]any)
	for name, value := range args {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		want, _ := prop["type"].(string)
		if want == "" {
			continue
		}
		if !matchesType(value, want) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected %s, got %T", want, value),
			}
		}
		if err := checkEnum(name, value, prop); err != nil {
			return err
		}
	}

	return nil
}

// requiredFields tolerates both []string (schemas built in Go) and []any
// (schemas decoded from JSON).
func requiredFields(s map[string]any) []string {
	switch req := s["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if name, ok := r.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

func checkEnum(name string, value any, prop map[string]any) error {
	allowed, ok := prop["enum"].([]any)
	if !ok || len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &ValidationError{
		Field:   name,
		Value:   value,
		Message: fmt.Sprintf("value not in enum %v", allowed),
	}
}

func matchesType(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			// JSON decoding yields float64 for all numbers.
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
