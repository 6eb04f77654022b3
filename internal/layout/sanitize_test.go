package layout

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"SOH", "a\u0001b", `a\u0001b`},
		{"NUL", "\x00", `\u0000`},
		{"BEL", "ding\adong", `ding\u0007dong`},
		{"ESC", "\x1b[31mred", `\u001b[31mred`},
		{"unit separator", "a\x1fb", `a\u001fb`},
		{"tab and newline kept", "a\tb\nc", "a\tb\nc"},
		{"backspace to shift-in kept", "\b\t\n\v\f\r\x0e\x0f", "\b\t\n\v\f\r\x0e\x0f"},
		{"DEL kept", "a\x7fb", "a\x7fb"},
		{"unicode kept", "héllo → 世界", "héllo → 世界"},
		{"invalid utf8 kept", "a\xffb\x10", "a\xffb\\u0010"},
		{"mixed", "x\x02y\nz\x10", "x\\u0002y\nz\\u0010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sanitize(tt.input)
			if result != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitize_NoControlCharsUnchanged(t *testing.T) {
	var b strings.Builder
	for c := 0x08; c <= 0x0f; c++ {
		b.WriteByte(byte(c))
	}
	for c := 0x20; c < 0x80; c++ {
		b.WriteByte(byte(c))
	}
	s := b.String()

	if result := Sanitize(s); result != s {
		t.Errorf("Sanitize changed a string without escaped control chars: %q", result)
	}
}

func TestSanitize_EveryEscapedByte(t *testing.T) {
	for c := 0; c < 0x20; c++ {
		in := string([]byte{byte(c)})
		out := Sanitize(in)

		if c >= 0x08 && c <= 0x0f {
			if out != in {
				t.Errorf("byte 0x%02x should pass through, got %q", c, out)
			}
			continue
		}
		if len(out) != 6 || !strings.HasPrefix(out, `\u00`) {
			t.Errorf("byte 0x%02x: expected \\u00XX escape, got %q", c, out)
		}
	}
}

func TestSanitize_NoDoubleEscaping(t *testing.T) {
	// Text that already spells an escape is not a control character
	literal := `a\u0001b`
	if result := Sanitize(literal); result != literal {
		t.Errorf("literal escape text was modified: %q", result)
	}

	once := Sanitize("a\u0001b")
	if twice := Sanitize(once); twice != once {
		t.Errorf("Sanitize is not idempotent: %q -> %q", once, twice)
	}
}
