package types

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

var parserPool fastjson.ParserPool

// ParseRecord decodes one NDJSON log line.
//
// Recognised fields: @timestamp (or timestamp), level, logger (or context),
// message, error, meta, pid. message and error.stack are not always strings
// in the wild (some producers emit objects or numbers); those are coerced to
// their JSON text instead of being rejected.
func ParseRecord(data []byte) (LogRecord, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return LogRecord{}, fmt.Errorf("parsing record: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return LogRecord{}, fmt.Errorf("parsing record: expected object, got %s", v.Type())
	}

	rec := LogRecord{
		Level:   ParseLevel(coerceString(v.Get("level"))),
		Message: coerceString(v.Get("message")),
		PID:     v.GetInt("pid"),
	}

	rec.Context = coerceString(v.Get("logger"))
	if rec.Context == "" {
		rec.Context = coerceString(v.Get("context"))
	}

	ts := v.Get("@timestamp")
	if ts == nil {
		ts = v.Get("timestamp")
	}
	if rec.Timestamp, err = parseTimestamp(ts); err != nil {
		return LogRecord{}, fmt.Errorf("parsing record timestamp: %w", err)
	}

	if ev := v.Get("error"); ev != nil && ev.Type() != fastjson.TypeNull {
		rec.Error = parseError(ev)
	}

	if mv := v.Get("meta"); mv != nil && mv.Type() == fastjson.TypeObject {
		if m, ok := toInterface(mv).(map[string]interface{}); ok && len(m) > 0 {
			rec.Meta = m
		}
	}

	return rec, nil
}

func parseTimestamp(v *fastjson.Value) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		return time.Parse(time.RFC3339Nano, string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		// epoch millis
		return time.UnixMilli(v.GetInt64()).UTC(), nil
	case fastjson.TypeNull:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported type %s", v.Type())
	}
}

// parseError builds an ErrorInfo; an "errors" array marks an aggregate
func parseError(v *fastjson.Value) *ErrorInfo {
	if v.Type() != fastjson.TypeObject {
		return NewError(coerceString(v), "")
	}

	info := NewError(coerceString(v.Get("message")), coerceString(v.Get("stack")))

	if causes := v.Get("errors"); causes != nil && causes.Type() == fastjson.TypeArray {
		info.Kind = KindAggregate
		for _, c := range causes.GetArray() {
			if c.Type() == fastjson.TypeNull {
				continue
			}
			info.Errors = append(info.Errors, parseError(c))
		}
	}

	return info
}

// coerceString returns strings as-is and any other JSON value as its text
func coerceString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNull:
		return ""
	default:
		return v.String()
	}
}

// toInterface copies a parsed value out of parser-owned memory
func toInterface(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeObject:
		m := make(map[string]interface{})
		o, _ := v.Object()
		o.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = toInterface(val)
		})
		return m
	case fastjson.TypeArray:
		items := v.GetArray()
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			out = append(out, toInterface(item))
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
