package layout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// controlEscapes holds the JSON string escape for every byte below 0x20 so
// escaped output reads the same as the JSON layout's encoding.
var controlEscapes [0x20]string

func init() {
	for c := range controlEscapes {
		quoted, err := json.Marshal(string(rune(c)))
		if err != nil {
			controlEscapes[c] = fmt.Sprintf(`\u%04x`, c)
			continue
		}
		controlEscapes[c] = string(quoted[1 : len(quoted)-1])
	}
}

// isEscapedControl reports whether b is in 0x00-0x07 or 0x10-0x1F.
// 0x08-0x0F (backspace, tab, line feed, carriage return...) are left alone
// so multi-line messages and stack traces stay readable.
func isEscapedControl(b byte) bool {
	return b < 0x08 || (b >= 0x10 && b < 0x20)
}

// Sanitize escapes control characters that could corrupt or forge log
// lines. Works on bytes: control characters are ASCII and never appear
// inside a UTF-8 multi-byte sequence, so invalid UTF-8 passes through.
func Sanitize(s string) string {
	i := 0
	for i < len(s) && !isEscapedControl(s[i]) {
		i++
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		c := s[i]
		if isEscapedControl(c) {
			b.WriteString(controlEscapes[c])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
