package layout

import (
	"sort"
	"strings"

	"github.com/espegro/logtrail/internal/types"
)

// DefaultPattern is used when no pattern is configured
const DefaultPattern = "[%date][%level][%logger] %message"

// segment is either literal text or a conversion with its parameter
type segment struct {
	literal string
	conv    *Conversion
	param   string
}

// PatternLayout renders records through a %token template. The template is
// split once at construction; tokens inserted by a conversion (a message
// containing "%level", say) are never expanded again.
type PatternLayout struct {
	pattern  string
	segments []segment
}

// NewPatternLayout compiles pattern with the default conversions
func NewPatternLayout(pattern string) *PatternLayout {
	return NewPatternLayoutWith(pattern, DefaultConversions)
}

// NewPatternLayoutWith compiles pattern with a custom conversion set.
// Unknown tokens are kept as literal text.
func NewPatternLayoutWith(pattern string, conversions []Conversion) *PatternLayout {
	if pattern == "" {
		pattern = DefaultPattern
	}

	byName := make(map[string]*Conversion, len(conversions))
	names := make([]string, 0, len(conversions))
	for i := range conversions {
		if _, ok := byName[conversions[i].Name]; !ok {
			names = append(names, conversions[i].Name)
		}
		byName[conversions[i].Name] = &conversions[i]
	}
	// Longest name first so a name never shadows a longer one it prefixes
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	l := &PatternLayout{pattern: pattern}
	last := 0
	for i := 0; i < len(pattern); {
		j := strings.IndexByte(pattern[i:], '%')
		if j < 0 {
			break
		}
		start := i + j

		// A token is "%" plus a conversion name, so "%messages" is the
		// message followed by "s"
		name := matchName(pattern[start+1:], names)
		if name == "" {
			i = start + 1
			continue
		}

		seg := segment{conv: byName[name]}
		end := start + 1 + len(name)
		if end < len(pattern) && pattern[end] == '{' {
			if k := strings.IndexByte(pattern[end:], '}'); k >= 0 {
				seg.param = pattern[end+1 : end+k]
				end += k + 1
			}
		}

		if start > last {
			l.segments = append(l.segments, segment{literal: pattern[last:start]})
		}
		l.segments = append(l.segments, seg)
		last, i = end, end
	}
	if last < len(pattern) {
		l.segments = append(l.segments, segment{literal: pattern[last:]})
	}

	return l
}

func matchName(s string, names []string) string {
	for _, name := range names {
		if name != "" && strings.HasPrefix(s, name) {
			return name
		}
	}
	return ""
}

// Pattern returns the template this layout was built from
func (l *PatternLayout) Pattern() string {
	return l.pattern
}

// Format renders a record into a single log line (without trailing newline)
func (l *PatternLayout) Format(rec types.LogRecord) string {
	var b strings.Builder
	for _, seg := range l.segments {
		if seg.conv == nil {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(seg.conv.Convert(rec, seg.param))
	}
	return b.String()
}
