package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// Validate checks args against the descriptor's parameter schema: required
// parameters present, value shapes matching the declared type, enum values
// inside their declared set. It runs before any store access so an invalid
// call never has a side effect.
func (d Descriptor) Validate(args map[string]any) error {
	for name, p := range d.Params {
		value, ok := args[name]
		if !ok || value == nil {
			if p.Required {
				return fmt.Errorf("%w: %s requires parameter %q", contractx.ErrInvalidArguments, d.Name, name)
			}
			continue
		}
		if err := checkType(name, p.Type, value); err != nil {
			return fmt.Errorf("%w: %s: %v", contractx.ErrInvalidArguments, d.Name, err)
		}
		if len(p.Enum) > 0 {
			if err := checkEnum(name, p.Enum, value); err != nil {
				return fmt.Errorf("%w: %s: %v", contractx.ErrInvalidArguments, d.Name, err)
			}
		}
	}
	return nil
}

func checkType(name string, want ParamType, value any) error {
	switch want {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("parameter %q must be a string, got %T", name, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("parameter %q must be a boolean, got %T", name, value)
		}
	case TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("parameter %q must be an object, got %T", name, value)
		}
	case TypeNumber:
		if _, ok := asFloat(value); !ok {
			return fmt.Errorf("parameter %q must be a number, got %T", name, value)
		}
	case TypeInteger:
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("parameter %q must be an integer, got %T", name, value)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("parameter %q must be an integer, got %v", name, value)
		}
	}
	return nil
}

func checkEnum(name string, enum []string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("parameter %q must be one of %v, got %T", name, enum, value)
	}
	for _, member := range enum {
		if s == member {
			return nil
		}
	}
	return fmt.Errorf("parameter %q must be one of %v, got %q", name, enum, s)
}

// asFloat normalizes the numeric shapes JSON decoding and direct callers
// produce.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IntArg reads an integer-typed argument, tolerating the float64 shape JSON
// decoding produces. Returns fallback when the argument is absent.
func IntArg(args map[string]any, name string, fallback int) int {
	value, ok := args[name]
	if !ok || value == nil {
		return fallback
	}
	f, ok := asFloat(value)
	if !ok {
		return fallback
	}
	return int(f)
}

// StringArg reads a string-typed argument, returning fallback when absent.
func StringArg(args map[string]any, name, fallback string) string {
	if value, ok := args[name].(string); ok && value != "" {
		return value
	}
	return fallback
}
