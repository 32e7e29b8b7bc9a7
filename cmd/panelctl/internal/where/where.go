// Package where turns repeated --where key=value flags into list filters.
package where

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Infinity2209/user/pkg/sdk"
)

// Parse reads key=value pairs. Values that parse as booleans or numbers keep
// that type; everything else is a string. A repeated key keeps the last value
// and is reported as a warning.
func Parse(args []string) (map[string]any, []string, error) {
	fields := map[string]any{}
	warnings := []string{}

	for _, raw := range args {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		key, val, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --where %q (expected key=value)", raw)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, nil, fmt.Errorf("--where key cannot be empty (%q)", raw)
		}

		if _, exists := fields[key]; exists {
			warnings = append(warnings, fmt.Sprintf("duplicate --where %q, last value wins", key))
		}
		fields[key] = inferValue(strings.TrimSpace(val))
	}

	return fields, warnings, nil
}

// Combine ANDs the equality filter built from fields onto expr.
func Combine(expr string, fields map[string]any) string {
	expr = strings.TrimSpace(expr)
	eq := sdk.BuildFilter(fields)
	switch {
	case eq == "":
		return expr
	case expr == "":
		return eq
	default:
		return fmt.Sprintf("(%s) and (%s)", expr, eq)
	}
}

func inferValue(raw string) any {
	if b, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
