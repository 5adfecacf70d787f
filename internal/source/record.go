package source

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Record is one raw provider payload. Keys may arrive in snake_case or camelCase;
// every lookup tries both spellings and accepts dotted paths into nested objects.
type Record map[string]any

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// Get returns the first non-nil value among keys.
func (r Record) Get(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r.path(key); ok {
			return v, true
		}
	}
	return nil, false
}

// String returns the first non-blank textual value among keys.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		v, ok := r.path(key)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

// StringOr is String with a fallback for missing values.
func (r Record) StringOr(fallback string, keys ...string) string {
	if s := r.String(keys...); s != "" {
		return s
	}
	return fallback
}

// ID returns the native identity as a string, or "" if absent.
func (r Record) ID(keys ...string) string {
	if len(keys) == 0 {
		keys = []string{"id"}
	}
	return r.String(keys...)
}

// Bool reads booleans that may be encoded as bool, number or string.
func (r Record) Bool(keys ...string) (bool, bool) {
	for _, key := range keys {
		v, ok := r.path(key)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val, true
		case float64:
			return val != 0, true
		case json.Number:
			f, err := val.Float64()
			if err == nil {
				return f != 0, true
			}
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// Time parses the first decodable timestamp among keys. Numbers are unix seconds
// or, when large enough, milliseconds.
func (r Record) Time(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := r.path(key)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if t, ok := parseTime(val); ok {
				return t, true
			}
		case float64:
			return unixTime(val), true
		case json.Number:
			if f, err := val.Float64(); err == nil {
				return unixTime(f), true
			}
		case time.Time:
			return val.UTC(), true
		}
	}
	return time.Time{}, false
}

// Nested returns a sub-object or an empty record.
func (r Record) Nested(key string) Record {
	v, ok := r.path(key)
	if !ok {
		return Record{}
	}
	if m, ok := asMap(v); ok {
		return m
	}
	return Record{}
}

func (r Record) path(key string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := lookup(m, part)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func lookup(m map[string]any, key string) (any, bool) {
	for _, k := range []string{key, SnakeCase(key), CamelCase(key)} {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func unixTime(v float64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

// SnakeCase converts "createdAt" to "created_at".
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelCase converts "created_at" to "createdAt".
func CamelCase(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
