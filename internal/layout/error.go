package layout

import (
	"strings"
	"unicode"

	"github.com/espegro/logtrail/internal/types"
)

const causeIndent = "    > "

// FormatError renders an error for the %message token.
//
// Simple errors render as their stack, or their message when there is no
// stack. Aggregates render their head line, then the part of each cause's
// trace that is not shared with the aggregate's own trace, then the
// aggregate's frames once.
func FormatError(err *types.ErrorInfo) string {
	if err == nil {
		return ""
	}
	if err.Kind == types.KindAggregate {
		return formatAggregate(err)
	}
	if err.Stack != "" {
		return err.Stack
	}
	return err.Message
}

func formatAggregate(err *types.ErrorInfo) string {
	head, frames := splitHead(err)

	shared := make(map[string]struct{}, len(frames))
	for _, frame := range frames {
		shared[strings.TrimSpace(frame)] = struct{}{}
	}

	out := make([]string, 0, 1+len(err.Errors)+len(frames))
	out = append(out, head+". Caused by:")

	for _, cause := range err.Errors {
		if cause == nil {
			continue
		}

		var kept []string
		for _, line := range strings.Split(FormatError(cause), "\n") {
			if _, ok := shared[strings.TrimSpace(line)]; ok {
				break
			}
			kept = append(kept, causeIndent+strings.TrimLeftFunc(line, unicode.IsSpace))
		}
		out = append(out, strings.Join(kept, "\n"))
	}

	out = append(out, frames...)
	return strings.Join(out, "\n")
}

// splitHead returns the first stack line and the remaining frames. Without
// a stack the first message line is the head and there are no frames.
func splitHead(err *types.ErrorInfo) (string, []string) {
	if err.Stack != "" {
		lines := strings.Split(err.Stack, "\n")
		return lines[0], lines[1:]
	}

	head := err.Message
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		head = "AggregateError"
	}
	return head, nil
}
