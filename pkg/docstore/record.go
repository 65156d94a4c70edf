package docstore

import (
	"fmt"
	"strconv"
	"time"
)

// Typed accessors tolerate the shapes both backends produce: Firestore
// decodes integers as int64 and arrays as []interface{}, the memory store
// keeps whatever the caller wrote.

func (r Record) GetString(key string) string {
	switch v := r.Fields[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	case int, int64, float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func (r Record) GetInt(key string) int64 {
	return toInt64(r.Fields[key])
}

func (r Record) GetFloat(key string) float64 {
	switch n := r.Fields[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case string:
		parsed, _ := strconv.ParseFloat(n, 64)
		return parsed
	default:
		return float64(toInt64(n))
	}
}

func (r Record) GetBool(key string) bool {
	b, _ := r.Fields[key].(bool)
	return b
}

func (r Record) GetTime(key string) time.Time {
	t, _ := r.Fields[key].(time.Time)
	return t
}

func (r Record) GetStrings(key string) []string {
	return toStrings(r.Fields[key])
}

func (r Record) GetMap(key string) map[string]interface{} {
	m, _ := r.Fields[key].(map[string]interface{})
	return m
}

func (r Record) GetMaps(key string) []map[string]interface{} {
	switch v := r.Fields[key].(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func toStrings(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	default:
		return nil
	}
}
