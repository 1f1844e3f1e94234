package vos

import (
	"fmt"
	"strconv"
)

// Tolerant field accessors for upstream records. Field casing drifts between
// upstream versions, so each accessor takes the known aliases in order.

// GetString returns the first present alias as a string, or "".
func GetString(rec map[string]any, aliases ...string) string {
	for _, name := range aliases {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", s)
		}
	}
	return ""
}

// GetFloat returns the first present alias as a float64, or 0.
func GetFloat(rec map[string]any, aliases ...string) float64 {
	for _, name := range aliases {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// GetInt returns the first present alias as an int64, or 0.
func GetInt(rec map[string]any, aliases ...string) int64 {
	for _, name := range aliases {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int:
			return int64(n)
		case int64:
			return n
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i
			}
		}
	}
	return 0
}

// GetBool returns the first present alias as a bool, or false.
func GetBool(rec map[string]any, aliases ...string) bool {
	for _, name := range aliases {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case float64:
			return b != 0
		case string:
			return b == "1" || b == "true"
		}
	}
	return false
}
