package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/valyala/fastjson"

	"github.com/espegro/logtrail/internal/config"
	"github.com/espegro/logtrail/internal/types"
)

func testRecord() types.LogRecord {
	return types.LogRecord{
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 123_000_000, time.UTC),
		Level:     types.INFO,
		Context:   "plugins.alerting",
		Message:   "rule executed",
		PID:       4242,
	}
}

func TestMessageConversion(t *testing.T) {
	rec := testRecord()
	rec.Message = "bad\x01input"

	if result := MessageConversion.Convert(rec, ""); result != `bad\u0001input` {
		t.Errorf("MessageConversion = %q", result)
	}

	rec.Error = types.NewError("boom", "Error: boom\x02\n    at f")
	if result := MessageConversion.Convert(rec, ""); result != "Error: boom\\u0002\n    at f" {
		t.Errorf("MessageConversion with error = %q", result)
	}
}

func TestPatternLayout_Default(t *testing.T) {
	l := NewPatternLayout("")

	if l.Pattern() != DefaultPattern {
		t.Errorf("Expected default pattern, got %q", l.Pattern())
	}

	expected := "[2024-03-01T10:00:00.123Z][INFO ][plugins.alerting] rule executed"
	if result := l.Format(testRecord()); result != expected {
		t.Errorf("Format() = %q, want %q", result, expected)
	}
}

func TestPatternLayout_Tokens(t *testing.T) {
	rec := testRecord()
	rec.Meta = map[string]interface{}{"b": 2, "a": "x"}

	tests := []struct {
		pattern  string
		expected string
	}{
		{"%level|%pid", "INFO |4242"},
		{"%date{UNIX}", "1709287200"},
		{"%date{UNIX_MILLIS}", "1709287200123"},
		{"%date{ISO8601} %message", "2024-03-01T10:00:00.123Z rule executed"},
		{"%message %meta", `rule executed {"a":"x","b":2}`},
		{"100%% %unknown %message", "100%% %unknown rule executed"},
		{"%messages", "rule executeds"},
		{"%levelx%pid7", "INFO x42427"},
		{"%%message", "%rule executed"},
		{"%date{UNIX", "2024-03-01T10:00:00.123Z{UNIX"},
		{"no tokens", "no tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if result := NewPatternLayout(tt.pattern).Format(rec); result != tt.expected {
				t.Errorf("Format() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPatternLayout_NoReexpansion(t *testing.T) {
	rec := testRecord()
	rec.Message = "user typed %level and %pid"

	result := NewPatternLayout("%message").Format(rec)
	if result != "user typed %level and %pid" {
		t.Errorf("message tokens were expanded: %q", result)
	}
}

func TestPatternLayout_EmptyMeta(t *testing.T) {
	if result := NewPatternLayout("[%meta]").Format(testRecord()); result != "[]" {
		t.Errorf("Format() = %q, want []", result)
	}
}

func TestPatternLayout_CustomConversions(t *testing.T) {
	upper := Conversion{
		Name: "upper",
		Convert: func(rec types.LogRecord, _ string) string {
			return strings.ToUpper(rec.Message)
		},
	}

	l := NewPatternLayoutWith("%upper/%message", []Conversion{upper})
	if result := l.Format(testRecord()); result != "RULE EXECUTED/%message" {
		t.Errorf("Format() = %q", result)
	}
}

func TestPatternLayout_LongestNameWins(t *testing.T) {
	short := Conversion{
		Name:    "msg",
		Convert: func(types.LogRecord, string) string { return "short" },
	}
	long := Conversion{
		Name:    "msgid",
		Convert: func(types.LogRecord, string) string { return "long" },
	}

	l := NewPatternLayoutWith("%msgid %msg %msgs", []Conversion{short, long})
	if result := l.Format(testRecord()); result != "long short shorts" {
		t.Errorf("Format() = %q", result)
	}
}

func TestJSONLayout(t *testing.T) {
	rec := testRecord()
	rec.Level = types.ERROR
	rec.Message = "line\x01one"
	rec.Meta = map[string]interface{}{
		"message": "ignored",
		"tags":    []interface{}{"a", "b"},
		"http":    map[string]interface{}{"status": float64(500)},
	}
	rec.Error = types.NewAggregateError("", "AggregateError\n    at g",
		types.NewError("c1", "Error: c1\n    at h\n    at g"),
	)

	line := NewJSONLayout().Format(rec)
	if strings.Contains(line, "\n") {
		t.Fatalf("JSON layout produced a multi-line record: %q", line)
	}

	v, err := fastjson.Parse(line)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", line, err)
	}

	checks := map[string]string{
		"@timestamp": "2024-03-01T10:00:00.123Z",
		"message":    "line\x01one",
	}
	for key, want := range checks {
		if got := string(v.GetStringBytes(key)); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	if got := string(v.GetStringBytes("log", "level")); got != "ERROR" {
		t.Errorf("log.level = %q", got)
	}
	if got := string(v.GetStringBytes("log", "logger")); got != "plugins.alerting" {
		t.Errorf("log.logger = %q", got)
	}
	if got := v.GetInt("process", "pid"); got != 4242 {
		t.Errorf("process.pid = %d", got)
	}
	if got := string(v.GetStringBytes("error", "type")); got != "AggregateError" {
		t.Errorf("error.type = %q", got)
	}
	if got := string(v.GetStringBytes("error", "stack_trace")); got != "AggregateError. Caused by:\n    > Error: c1\n    > at h\n    at g" {
		t.Errorf("error.stack_trace = %q", got)
	}
	if got := v.GetInt("http", "status"); got != 500 {
		t.Errorf("http.status = %d", got)
	}
	if got := len(v.GetArray("tags")); got != 2 {
		t.Errorf("tags has %d items", got)
	}
}

func TestJSONLayout_NoError(t *testing.T) {
	v, err := fastjson.Parse(NewJSONLayout().Format(testRecord()))
	if err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.Exists("error") {
		t.Error("error object present on a record without error")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     config.LayoutConfig
		wantErr bool
		json    bool
	}{
		{config.LayoutConfig{}, false, false},
		{config.LayoutConfig{Type: "pattern", Pattern: "%message"}, false, false},
		{config.LayoutConfig{Type: "json"}, false, true},
		{config.LayoutConfig{Type: "xml"}, true, false},
	}

	for _, tt := range tests {
		l, err := New(tt.cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%+v) expected error", tt.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%+v) failed: %v", tt.cfg, err)
		}
		if _, isJSON := l.(*JSONLayout); isJSON != tt.json {
			t.Errorf("New(%+v) returned %T", tt.cfg, l)
		}
	}
}
