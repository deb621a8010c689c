package common

import "math"

// StringArg returns a string argument, or "" when it is missing or not a string
func StringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// IntArg returns a numeric argument as an int, or def when it is missing.
// JSON numbers arrive as float64.
func IntArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(math.Round(v))
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}

// OptionalInt returns a numeric argument, or nil when it is missing
func OptionalInt(args map[string]any, name string) *int {
	if _, ok := args[name]; !ok {
		return nil
	}
	v := IntArg(args, name, 0)
	return &v
}

// BoolArg returns a boolean argument, or def when it is missing
func BoolArg(args map[string]any, name string, def bool) bool {
	if b, ok := args[name].(bool); ok {
		return b
	}
	return def
}

// OptionalBool returns a boolean argument, or nil when it is missing
func OptionalBool(args map[string]any, name string) *bool {
	b, ok := args[name].(bool)
	if !ok {
		return nil
	}
	return &b
}

// OptionalFloat returns a numeric argument as float64, or nil when it is missing
func OptionalFloat(args map[string]any, name string) *float64 {
	switch v := args[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}
